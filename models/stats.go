package models

import "github.com/shopspring/decimal"

// WagerStats represents aggregated betting statistics for a user
type WagerStats struct {
	TotalWagers  int             `json:"totalWagers"`
	Pending      int             `json:"pending"`
	Won          int             `json:"won"`
	Lost         int             `json:"lost"`
	TotalStaked  decimal.Decimal `json:"totalStaked"`
	TotalPaidOut decimal.Decimal `json:"totalPaidOut"`
	BiggestWin   decimal.Decimal `json:"biggestWin"`
}

// UserHistory is the admin drill-down of a single user
type UserHistory struct {
	User         *User          `json:"user"`
	Transactions []*Transaction `json:"transactions"`
	Bets         []*Wager       `json:"bets"`
	Stats        *WagerStats    `json:"stats"`
}

// UserPage is one page of a filtered user listing
type UserPage struct {
	Users    []*User `json:"users"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}
