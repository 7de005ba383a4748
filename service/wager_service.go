package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sportsbook/apperr"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var minOdds = decimal.NewFromInt(1)

type wagerService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewWagerService creates a new wager service
func NewWagerService(uowFactory UnitOfWorkFactory) WagerService {
	return &wagerService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// PlaceWager validates the selections, debits the stake and stores a pending wager.
// The combined odds are computed once here and never recomputed.
func (s *wagerService) PlaceWager(ctx context.Context, userID string, selections []models.Selection, stake decimal.Decimal) (*models.Wager, error) {
	if userID == "" {
		return nil, apperr.ErrAuthRequired
	}

	snapshot, err := snapshotSelections(selections)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("stake", stake); err != nil {
		return nil, err
	}

	totalOdds := models.CombinedOdds(snapshot)
	wager := &models.Wager{
		ID:              models.NewID(),
		UserID:          userID,
		Selections:      snapshot,
		Stake:           stake,
		TotalOdds:       totalOdds,
		PotentialPayout: models.Payout(stake, totalOdds),
		Status:          models.WagerStatusPending,
		CreatedAt:       s.now().UTC(),
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	metadata := map[string]any{
		"legs":       len(snapshot),
		"total_odds": totalOdds.String(),
	}
	if err := debit(ctx, uow, userID, stake, models.LedgerEntryBetPlaced, wager.ID, models.RelatedTypeWager, metadata); err != nil {
		return nil, fmt.Errorf("failed to take stake: %w", err)
	}

	if err := uow.WagerRepository().Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		WagerID:   wager.ID,
		UserID:    userID,
		Stake:     stake,
		TotalOdds: totalOdds,
		Legs:      len(snapshot),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID":   wager.ID,
		"userID":    userID,
		"stake":     stake.String(),
		"totalOdds": totalOdds.String(),
		"legs":      len(snapshot),
	}).Info("Wager placed")

	return wager, nil
}

func (s *wagerService) ListUserWagers(ctx context.Context, userID string) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	return wagers, nil
}

// snapshotSelections copies and validates the legs of a bet
func snapshotSelections(selections []models.Selection) ([]models.Selection, error) {
	if len(selections) == 0 {
		return nil, apperr.Validation("at least one selection is required")
	}

	snapshot := make([]models.Selection, 0, len(selections))
	seen := make(map[string]bool, len(selections))
	for _, sel := range selections {
		sel.Label = strings.TrimSpace(sel.Label)
		if sel.Label == "" {
			return nil, apperr.Validation("selection label is required")
		}
		if !sel.Odds.GreaterThan(minOdds) {
			return nil, apperr.Validation("odds for %q must be greater than 1", sel.Label)
		}
		sel.ID = models.SelectionID(sel.Label, sel.Odds)
		if seen[sel.ID] {
			return nil, apperr.Validation("duplicate selection %q", sel.Label)
		}
		seen[sel.ID] = true
		snapshot = append(snapshot, sel)
	}
	return snapshot, nil
}
