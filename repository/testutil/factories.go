package testutil

import (
	"time"

	"sportsbook/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestUser creates a test user with a zero balance
func CreateTestUser(username string) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         models.RoleUser,
		Balance:      decimal.Zero,
		PersonalInfo: models.PersonalInfo{
			FirstName: "Test",
			LastName:  "User",
		},
	}
}

// CreateTestAdmin creates a test user holding the admin role
func CreateTestAdmin(username string) *models.User {
	user := CreateTestUser(username)
	user.Role = models.RoleAdmin
	return user
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(username string, balance string) *models.User {
	user := CreateTestUser(username)
	user.Balance = decimal.RequireFromString(balance)
	return user
}

// CreateTestDeposit creates a pending deposit for a user
func CreateTestDeposit(userID string, amount string) *models.Transaction {
	return &models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.TransactionTypeDeposit,
		Amount:    decimal.RequireFromString(amount),
		Status:    models.RequestStatusPending,
		Method:    "bank_transfer",
		Reference: "REF-" + userID[:8],
		CreatedAt: time.Now().UTC(),
	}
}

// CreateTestWithdrawal creates a pending withdrawal transaction and its linked request
func CreateTestWithdrawal(userID string, amount string) (*models.Transaction, *models.WithdrawalRequest) {
	tx := &models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.TransactionTypeWithdrawal,
		Amount:    decimal.RequireFromString(amount),
		Status:    models.RequestStatusPending,
		Method:    string(models.WithdrawalMethodPagoMovil),
		CreatedAt: time.Now().UTC(),
	}
	req := &models.WithdrawalRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		TransactionID: tx.ID,
		Amount:        tx.Amount,
		MethodType:    models.WithdrawalMethodPagoMovil,
		MethodDetails: "0414-5555555 V-12345678",
		Status:        models.RequestStatusPending,
		RequestedAt:   tx.CreatedAt,
	}
	tx.Reference = req.ID
	return tx, req
}

// CreateTestWager creates a pending two-leg wager
func CreateTestWager(userID string, stake string) *models.Wager {
	selections := []models.Selection{
		{Label: "Lakers ML", Odds: decimal.RequireFromString("1.85")},
		{Label: "Over 210.5", Odds: decimal.RequireFromString("2.10")},
	}
	for i := range selections {
		selections[i].ID = selections[i].Key()
	}
	stakeAmount := decimal.RequireFromString(stake)
	totalOdds := models.CombinedOdds(selections)
	return &models.Wager{
		ID:              uuid.NewString(),
		UserID:          userID,
		Selections:      selections,
		Stake:           stakeAmount,
		TotalOdds:       totalOdds,
		PotentialPayout: models.Payout(stakeAmount, totalOdds),
		Status:          models.WagerStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID string, entryType models.LedgerEntryType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:        userID,
		BalanceBefore: decimal.RequireFromString("100"),
		BalanceAfter:  decimal.RequireFromString("90"),
		ChangeAmount:  decimal.RequireFromString("-10"),
		EntryType:     entryType,
		TransactionMetadata: map[string]interface{}{
			"test": true,
		},
	}
}
