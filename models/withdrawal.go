package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalMethod is the payout channel requested by the user
type WithdrawalMethod string

const (
	WithdrawalMethodPagoMovil WithdrawalMethod = "pago_movil"
	WithdrawalMethodOther     WithdrawalMethod = "other"
)

// Valid reports whether the method is one the platform pays out through
func (m WithdrawalMethod) Valid() bool {
	return m == WithdrawalMethodPagoMovil || m == WithdrawalMethodOther
}

// WithdrawalRequest is the admin-facing projection of a withdrawal transaction
type WithdrawalRequest struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"userId"`
	TransactionID string           `db:"transaction_id" json:"transactionId"`
	Amount        decimal.Decimal  `db:"amount" json:"amount"`
	MethodType    WithdrawalMethod `db:"method_type" json:"methodType"`
	MethodDetails string           `db:"method_details" json:"methodDetails"`
	Status        RequestStatus    `db:"status" json:"status"`
	Reason        *string          `db:"reason" json:"reason,omitempty"`
	ResolvedBy    *string          `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time       `db:"resolved_at" json:"resolvedAt,omitempty"`
	RequestedAt   time.Time        `db:"requested_at" json:"requestedAt"`
}
