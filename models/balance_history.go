package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType represents the cause of a balance change
type LedgerEntryType string

const (
	LedgerEntryDepositApproved    LedgerEntryType = "deposit_approved"
	LedgerEntryWithdrawalHeld     LedgerEntryType = "withdrawal_requested"
	LedgerEntryWithdrawalRefunded LedgerEntryType = "withdrawal_refunded"
	LedgerEntryBetPlaced          LedgerEntryType = "bet_placed"
	LedgerEntryBetWon             LedgerEntryType = "bet_won"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeTransaction RelatedType = "transaction"
	RelatedTypeWithdrawal  RelatedType = "withdrawal_request"
	RelatedTypeWager       RelatedType = "wager"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              string          `db:"user_id"`
	BalanceBefore       decimal.Decimal `db:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount"`
	EntryType           LedgerEntryType `db:"entry_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *string         `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
