package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus represents the settlement state of a wager
type WagerStatus string

const (
	WagerStatusPending WagerStatus = "pending"
	WagerStatusWon     WagerStatus = "won"
	WagerStatusLost    WagerStatus = "lost"
)

// IsSettled reports whether the status is terminal
func (s WagerStatus) IsSettled() bool {
	return s == WagerStatusWon || s == WagerStatusLost
}

// Selection is one leg of a bet: a pick with fixed decimal odds
type Selection struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Odds  decimal.Decimal `json:"odds"`
}

// SelectionID builds the composite identifier used to detect duplicate picks
func SelectionID(label string, odds decimal.Decimal) string {
	return label + "@" + odds.String()
}

// Key returns the composite id, deriving it when the selection carries none
func (s Selection) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return SelectionID(s.Label, s.Odds)
}

// Wager is a submitted bet. Selections and odds are frozen at placement.
type Wager struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"userId"`
	Selections      []Selection     `db:"selections" json:"selections"`
	Stake           decimal.Decimal `db:"stake" json:"stake"`
	TotalOdds       decimal.Decimal `db:"total_odds" json:"totalOdds"`
	PotentialPayout decimal.Decimal `db:"potential_payout" json:"potentialPayout"`
	Status          WagerStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	SettledAt       *time.Time      `db:"settled_at" json:"settledAt,omitempty"`
}

// IsParlay reports whether the wager combines more than one selection
func (w *Wager) IsParlay() bool {
	return len(w.Selections) > 1
}

// CombinedOdds returns the product of the odds of all selections.
// An empty list yields zero.
func CombinedOdds(selections []Selection) decimal.Decimal {
	if len(selections) == 0 {
		return decimal.Zero
	}
	total := decimal.NewFromInt(1)
	for _, s := range selections {
		total = total.Mul(s.Odds)
	}
	return total
}

// Payout returns stake × odds rounded to cents
func Payout(stake, odds decimal.Decimal) decimal.Decimal {
	return stake.Mul(odds).Round(2)
}
