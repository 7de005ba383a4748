package service

import (
	"context"
	"fmt"

	"sportsbook/apperr"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// SettleWager applies a result to a pending wager. The status guard makes a second
// settlement of the same wager fail with apperr.ErrAlreadyResolved, so a win is paid once.
func (s *settlementService) SettleWager(ctx context.Context, wagerID string, outcome models.WagerStatus) (*models.Wager, error) {
	if !outcome.IsSettled() {
		return nil, apperr.Validation("result must be won or lost")
	}
	if err := requireID("wager", wagerID); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().Settle(ctx, wagerID, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to settle wager: %w", err)
	}
	if wager == nil {
		existing, err := uow.WagerRepository().GetByID(ctx, wagerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get wager: %w", err)
		}
		if existing == nil {
			return nil, apperr.NotFound("wager", wagerID)
		}
		return nil, apperr.AlreadyResolved("wager", wagerID)
	}

	payout := decimal.Zero
	if outcome == models.WagerStatusWon {
		payout = models.Payout(wager.Stake, wager.TotalOdds)
		metadata := map[string]any{
			"stake":      wager.Stake.String(),
			"total_odds": wager.TotalOdds.String(),
		}
		if err := credit(ctx, uow, wager.UserID, payout, models.LedgerEntryBetWon, wager.ID, models.RelatedTypeWager, metadata); err != nil {
			return nil, fmt.Errorf("failed to pay out wager: %w", err)
		}
	}

	uow.EventBus().Publish(events.WagerSettledEvent{
		WagerID: wager.ID,
		UserID:  wager.UserID,
		Status:  outcome,
		Payout:  payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"wagerID": wager.ID,
		"userID":  wager.UserID,
		"outcome": outcome,
		"payout":  payout.String(),
	}).Info("Wager settled")

	return wager, nil
}
