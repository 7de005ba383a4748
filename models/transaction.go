package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes deposits from withdrawals
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// RequestStatus is the review state shared by transactions and withdrawal requests
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Transaction records a user-reported money movement awaiting admin review
type Transaction struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"userId"`
	Type       TransactionType `db:"type" json:"type"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Status     RequestStatus   `db:"status" json:"status"`
	Method     string          `db:"method" json:"method"`
	Reference  string          `db:"reference" json:"reference"`
	Reason     *string         `db:"reason" json:"reason,omitempty"`
	ResolvedBy *string         `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
