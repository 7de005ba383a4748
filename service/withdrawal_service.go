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

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// RequestWithdrawal debits the funds immediately and queues the request for review.
// A rejection refunds the debit.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, methodType models.WithdrawalMethod, methodDetails string) (*models.WithdrawalRequest, error) {
	if err := validateAmount("amount", amount); err != nil {
		return nil, err
	}
	if !methodType.Valid() {
		return nil, apperr.Validation("method type must be %s or %s", models.WithdrawalMethodPagoMovil, models.WithdrawalMethodOther)
	}
	methodDetails = strings.TrimSpace(methodDetails)
	if methodDetails == "" {
		return nil, apperr.Validation("payout details are required")
	}

	now := s.now().UTC()
	tx := &models.Transaction{
		ID:        models.NewID(),
		UserID:    userID,
		Type:      models.TransactionTypeWithdrawal,
		Amount:    amount,
		Status:    models.RequestStatusPending,
		Method:    string(methodType),
		CreatedAt: now,
	}
	req := &models.WithdrawalRequest{
		ID:            models.NewID(),
		UserID:        userID,
		TransactionID: tx.ID,
		Amount:        amount,
		MethodType:    methodType,
		MethodDetails: methodDetails,
		Status:        models.RequestStatusPending,
		RequestedAt:   now,
	}
	tx.Reference = req.ID

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	metadata := map[string]any{"method_type": string(methodType)}
	if err := debit(ctx, uow, userID, amount, models.LedgerEntryWithdrawalHeld, req.ID, models.RelatedTypeWithdrawal, metadata); err != nil {
		return nil, fmt.Errorf("failed to hold withdrawal funds: %w", err)
	}

	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal transaction: %w", err)
	}
	if err := uow.WithdrawalRepository().Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		RequestID:     req.ID,
		TransactionID: tx.ID,
		UserID:        userID,
		Amount:        amount,
		MethodType:    methodType,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": req.ID,
		"userID":    userID,
		"amount":    amount.String(),
	}).Info("Withdrawal requested")

	return req, nil
}

// ApproveWithdrawal confirms a held withdrawal. The funds already left the balance,
// so approval only records the decision and signals the external payout.
func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, requestID, adminID string) (*models.WithdrawalRequest, error) {
	if err := requireID("withdrawal", requestID); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	req, err := s.resolve(ctx, uow, requestID, models.RequestStatusApproved, adminID, nil)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(resolvedEvent(req, adminID))

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": req.ID,
		"userID":    req.UserID,
		"amount":    req.Amount.String(),
		"adminID":   adminID,
	}).Info("Withdrawal approved")

	return req, nil
}

// RejectWithdrawal refunds the held amount, restoring the balance from before the request
func (s *withdrawalService) RejectWithdrawal(ctx context.Context, requestID, adminID, reason string) (*models.WithdrawalRequest, error) {
	if err := requireID("withdrawal", requestID); err != nil {
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

	req, err := s.resolve(ctx, uow, requestID, models.RequestStatusRejected, adminID, &reason)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		"reason":   reason,
		"admin_id": adminID,
	}
	if err := credit(ctx, uow, req.UserID, req.Amount, models.LedgerEntryWithdrawalRefunded, req.ID, models.RelatedTypeWithdrawal, metadata); err != nil {
		return nil, fmt.Errorf("failed to refund withdrawal: %w", err)
	}

	uow.EventBus().Publish(resolvedEvent(req, adminID))

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": req.ID,
		"userID":    req.UserID,
		"amount":    req.Amount.String(),
		"adminID":   adminID,
		"reason":    reason,
	}).Info("Withdrawal rejected and refunded")

	return req, nil
}

// resolve transitions the request and its linked transaction together
func (s *withdrawalService) resolve(ctx context.Context, uow UnitOfWork, requestID string, status models.RequestStatus, adminID string, reason *string) (*models.WithdrawalRequest, error) {
	req, err := uow.WithdrawalRepository().Resolve(ctx, requestID, status, adminID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdrawal: %w", err)
	}
	if req == nil {
		existing, err := uow.WithdrawalRepository().GetByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if existing == nil {
			return nil, apperr.NotFound("withdrawal", requestID)
		}
		return nil, apperr.AlreadyResolved("withdrawal", requestID)
	}

	tx, err := uow.TransactionRepository().Resolve(ctx, req.TransactionID, models.TransactionTypeWithdrawal, status, adminID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdrawal transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("withdrawal %s: linked transaction %s is not pending", requestID, req.TransactionID)
	}

	return req, nil
}

func resolvedEvent(req *models.WithdrawalRequest, adminID string) events.WithdrawalResolvedEvent {
	event := events.WithdrawalResolvedEvent{
		RequestID:     req.ID,
		TransactionID: req.TransactionID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		MethodType:    req.MethodType,
		MethodDetails: req.MethodDetails,
		Status:        req.Status,
		AdminID:       adminID,
	}
	if req.Reason != nil {
		event.Reason = *req.Reason
	}
	return event
}
