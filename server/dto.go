package server

import (
	"time"

	"sportsbook/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=32"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"firstName" validate:"required,max=64"`
	LastName  string  `json:"lastName" validate:"required,max=64"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
	State     string  `json:"state" validate:"max=64"`
	BirthDate *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type profileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=32"`
	FirstName *string `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,max=64"`
	Phone     *string `json:"phone" validate:"omitempty,min=7,max=20"`
	State     *string `json:"state" validate:"omitempty,max=64"`
	BirthDate *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

type selectionRequest struct {
	Label string          `json:"label" validate:"required"`
	Odds  decimal.Decimal `json:"odds"`
}

func (r selectionRequest) selection() models.Selection {
	return models.Selection{Label: r.Label, Odds: r.Odds}
}

type placeBetRequest struct {
	Selections []selectionRequest `json:"selections" validate:"required,min=1,dive"`
	Stake      decimal.Decimal    `json:"stake"`
}

type placeBetResponse struct {
	WagerID   string             `json:"wagerId"`
	TotalOdds decimal.Decimal    `json:"totalOdds"`
	Stake     decimal.Decimal    `json:"stake"`
	Status    models.WagerStatus `json:"status"`
}

type stakeRequest struct {
	Stake string `json:"stake"`
}

type depositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=64"`
	Reference string          `json:"reference" validate:"required,max=128"`
}

type withdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	MethodType    string          `json:"methodType" validate:"required,oneof=pago_movil other"`
	MethodDetails string          `json:"methodDetails" validate:"required,max=256"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type settleRequest struct {
	Result string `json:"result" validate:"required,oneof=won lost"`
}

// parseDate converts an optional validated yyyy-mm-dd string
func parseDate(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil
	}
	return &t
}
