package service

import (
	"context"
	"fmt"

	"sportsbook/apperr"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
)

// RecordBalanceChange records a balance history entry and queues the matching event.
// Every balance mutation goes through here inside its unit of work.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if history.TransactionMetadata == nil {
		history.TransactionMetadata = map[string]any{}
	}

	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       history.UserID,
		OldBalance:   history.BalanceBefore,
		NewBalance:   history.BalanceAfter,
		ChangeAmount: history.ChangeAmount,
		EntryType:    history.EntryType,
	})

	return nil
}

// credit adds amount to a user's balance and records the ledger entry
func credit(ctx context.Context, uow UnitOfWork, userID string, amount decimal.Decimal, entry models.LedgerEntryType, relatedID string, relatedType models.RelatedType, metadata map[string]any) error {
	after, err := uow.UserRepository().AddBalance(ctx, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       after.Sub(amount),
		BalanceAfter:        after,
		ChangeAmount:        amount,
		EntryType:           entry,
		TransactionMetadata: metadata,
		RelatedID:           &relatedID,
		RelatedType:         &relatedType,
	})
}

// debit removes amount from a user's balance if covered and records the ledger entry
func debit(ctx context.Context, uow UnitOfWork, userID string, amount decimal.Decimal, entry models.LedgerEntryType, relatedID string, relatedType models.RelatedType, metadata map[string]any) error {
	after, err := uow.UserRepository().DeductBalance(ctx, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       after.Add(amount),
		BalanceAfter:        after,
		ChangeAmount:        amount.Neg(),
		EntryType:           entry,
		TransactionMetadata: metadata,
		RelatedID:           &relatedID,
		RelatedType:         &relatedType,
	})
}

// requireID rejects ids that cannot name any stored row, so they read as unknown
func requireID(entity, id string) error {
	if !models.ValidID(id) {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// validateAmount checks a money amount is positive with at most two decimal places
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("%s must be positive", field)
	}
	if !amount.Equal(amount.Round(2)) {
		return apperr.Validation("%s cannot have more than two decimal places", field)
	}
	return nil
}
