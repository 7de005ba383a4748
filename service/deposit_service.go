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

type depositService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewDepositService creates a new deposit service
func NewDepositService(uowFactory UnitOfWorkFactory) DepositService {
	return &depositService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// CreateDeposit records a user-reported payment awaiting review. The balance is untouched.
func (s *depositService) CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, method, reference string) (*models.Transaction, error) {
	if err := validateAmount("amount", amount); err != nil {
		return nil, err
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, apperr.Validation("payment method is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}

	tx := &models.Transaction{
		ID:        models.NewID(),
		UserID:    userID,
		Type:      models.TransactionTypeDeposit,
		Amount:    amount,
		Status:    models.RequestStatusPending,
		Method:    method,
		Reference: strings.TrimSpace(reference),
		CreatedAt: s.now().UTC(),
	}
	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	uow.EventBus().Publish(events.DepositRequestedEvent{
		TransactionID: tx.ID,
		UserID:        userID,
		Amount:        amount,
		Method:        method,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tx, nil
}

// ApproveDeposit marks a pending deposit approved and credits the user in the same transaction
func (s *depositService) ApproveDeposit(ctx context.Context, transactionID, adminID string) (*models.Transaction, error) {
	if err := requireID("deposit", transactionID); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tx, err := s.resolve(ctx, uow, transactionID, models.RequestStatusApproved, adminID, nil)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"method":    tx.Method,
		"reference": tx.Reference,
		"admin_id":  adminID,
	}
	if err := credit(ctx, uow, tx.UserID, tx.Amount, models.LedgerEntryDepositApproved, tx.ID, models.RelatedTypeTransaction, metadata); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}

	uow.EventBus().Publish(events.DepositResolvedEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Status:        models.RequestStatusApproved,
		AdminID:       adminID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"transactionID": tx.ID,
		"userID":        tx.UserID,
		"amount":        tx.Amount.String(),
		"adminID":       adminID,
	}).Info("Deposit approved")

	return tx, nil
}

// RejectDeposit marks a pending deposit rejected. No balance was ever applied, so none is reversed.
func (s *depositService) RejectDeposit(ctx context.Context, transactionID, adminID, reason string) (*models.Transaction, error) {
	if err := requireID("deposit", transactionID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("a rejection reason is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tx, err := s.resolve(ctx, uow, transactionID, models.RequestStatusRejected, adminID, &reason)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.DepositResolvedEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Status:        models.RequestStatusRejected,
		AdminID:       adminID,
		Reason:        reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"transactionID": tx.ID,
		"userID":        tx.UserID,
		"adminID":       adminID,
		"reason":        reason,
	}).Info("Deposit rejected")

	return tx, nil
}

// resolve applies the conditional status update and classifies a miss
func (s *depositService) resolve(ctx context.Context, uow UnitOfWork, transactionID string, status models.RequestStatus, adminID string, reason *string) (*models.Transaction, error) {
	tx, err := uow.TransactionRepository().Resolve(ctx, transactionID, models.TransactionTypeDeposit, status, adminID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deposit: %w", err)
	}
	if tx != nil {
		return tx, nil
	}

	existing, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	if existing == nil || existing.Type != models.TransactionTypeDeposit {
		return nil, apperr.NotFound("deposit", transactionID)
	}
	return nil, apperr.AlreadyResolved("deposit", transactionID)
}
