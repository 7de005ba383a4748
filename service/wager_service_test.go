package service

import (
	"context"
	"testing"

	"sportsbook/apperr"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sel(label, odds string) models.Selection {
	return models.Selection{Label: label, Odds: dec(odds)}
}

func TestWagerService_PlaceWager_Parlay(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewWagerService(m.Factory)

	m.expectCommit(ctx)
	m.UserRepo.On("DeductBalance", ctx, testUserID, decEq("20")).Return(dec("80"), nil)
	m.HistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.BalanceBefore.Equal(dec("100")) &&
			h.BalanceAfter.Equal(dec("80")) &&
			h.ChangeAmount.Equal(dec("-20")) &&
			h.EntryType == models.LedgerEntryBetPlaced &&
			*h.RelatedType == models.RelatedTypeWager
	})).Return(nil)
	m.WagerRepo.On("Create", ctx, mock.AnythingOfType("*models.Wager")).Return(nil)

	wager, err := svc.PlaceWager(ctx, testUserID, []models.Selection{
		sel("Lakers ML", "1.85"),
		sel(" Over 210.5 ", "2.10"),
	}, dec("20"))
	require.NoError(t, err)

	assert.Equal(t, models.WagerStatusPending, wager.Status)
	assert.True(t, wager.TotalOdds.Equal(dec("3.885")), "total odds %s", wager.TotalOdds)
	assert.True(t, wager.PotentialPayout.Equal(dec("77.70")), "payout %s", wager.PotentialPayout)
	assert.True(t, wager.IsParlay())
	require.Len(t, wager.Selections, 2)
	assert.Equal(t, "Over 210.5", wager.Selections[1].Label)
	assert.Equal(t, "Over 210.5@2.1", wager.Selections[1].ID)

	placed := m.Events.OfType(events.EventTypeWagerPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, 2, placed[0].(events.WagerPlacedEvent).Legs)
	assert.Len(t, m.Events.OfType(events.EventTypeBalanceChange), 1)
	m.assertAll(t)
}

func TestWagerService_PlaceWager_FreezesSelections(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewWagerService(m.Factory)

	m.expectCommit(ctx)
	m.UserRepo.On("DeductBalance", ctx, testUserID, decEq("10")).Return(dec("0"), nil)
	m.HistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	m.WagerRepo.On("Create", ctx, mock.Anything).Return(nil)

	input := []models.Selection{sel("Draw", "3.40")}
	wager, err := svc.PlaceWager(ctx, testUserID, input, dec("10"))
	require.NoError(t, err)

	input[0].Odds = dec("9.99")
	assert.True(t, wager.Selections[0].Odds.Equal(dec("3.40")))
	assert.True(t, wager.PotentialPayout.Equal(dec("34")))
}

func TestWagerService_PlaceWager_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		selections []models.Selection
		stake      string
	}{
		{"no selections", nil, "10"},
		{"blank label", []models.Selection{sel("  ", "2.00")}, "10"},
		{"odds of one", []models.Selection{sel("Home", "1.00")}, "10"},
		{"odds below one", []models.Selection{sel("Home", "0.5")}, "10"},
		{"duplicate pick", []models.Selection{sel("Home", "1.50"), sel("Home", "1.5")}, "10"},
		{"zero stake", []models.Selection{sel("Home", "1.50")}, "0"},
		{"negative stake", []models.Selection{sel("Home", "1.50")}, "-5"},
		{"sub-cent stake", []models.Selection{sel("Home", "1.50")}, "1.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMocks()
			svc := NewWagerService(m.Factory)

			_, err := svc.PlaceWager(ctx, testUserID, tt.selections, dec(tt.stake))
			assert.ErrorIs(t, err, apperr.ErrValidation)
			m.Factory.AssertNotCalled(t, "Create")
		})
	}
}

func TestWagerService_PlaceWager_RequiresUser(t *testing.T) {
	m := newTestMocks()
	svc := NewWagerService(m.Factory)

	_, err := svc.PlaceWager(context.Background(), "", []models.Selection{sel("Home", "1.5")}, dec("10"))
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestWagerService_PlaceWager_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewWagerService(m.Factory)

	m.expectRollback(ctx)
	m.UserRepo.On("DeductBalance", ctx, testUserID, decEq("150")).Return(decimal.Zero, apperr.ErrInsufficientBalance)

	_, err := svc.PlaceWager(ctx, testUserID, []models.Selection{sel("Home", "1.5")}, dec("150"))
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	m.WagerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.UoW.AssertNotCalled(t, "Commit")
	assert.Empty(t, m.Events.OfType(events.EventTypeWagerPlaced))
	m.assertAll(t)
}

func TestWagerService_ListUserWagers(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewWagerService(m.Factory)

	m.expectRollback(ctx)
	wagers := []*models.Wager{{ID: "w1", UserID: testUserID}}
	m.WagerRepo.On("ListByUser", ctx, testUserID).Return(wagers, nil)

	got, err := svc.ListUserWagers(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, wagers, got)
	m.assertAll(t)
}
