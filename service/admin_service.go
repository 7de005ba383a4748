package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sportsbook/apperr"
	"sportsbook/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{
		uowFactory: uowFactory,
	}
}

func (s *adminService) ListPendingDeposits(ctx context.Context) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deposits, err := uow.TransactionRepository().ListByStatus(ctx, models.TransactionTypeDeposit, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}
	return deposits, nil
}

func (s *adminService) ListPendingWithdrawals(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requests, err := uow.WithdrawalRepository().ListByStatus(ctx, models.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return requests, nil
}

// ListUsers filters all users by query and returns the requested 1-based page
func (s *adminService) ListUsers(ctx context.Context, query string, page, pageSize int) (*models.UserPage, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return Paginate(FilterUsers(users, query), page, pageSize), nil
}

// UserHistory combines a user's transactions and wagers, each newest first
func (s *adminService) UserHistory(ctx context.Context, userID string) (*models.UserHistory, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
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

	txs, err := uow.TransactionRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	wagers, err := uow.WagerRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	sort.SliceStable(wagers, func(i, j int) bool { return wagers[i].CreatedAt.After(wagers[j].CreatedAt) })

	if txs == nil {
		txs = []*models.Transaction{}
	}
	if wagers == nil {
		wagers = []*models.Wager{}
	}

	return &models.UserHistory{
		User:         user,
		Transactions: txs,
		Bets:         wagers,
		Stats:        ComputeWagerStats(wagers),
	}, nil
}

// FilterUsers keeps users whose username, email or id contains query, ignoring case.
// An empty query keeps everyone.
func FilterUsers(users []*models.User, query string) []*models.User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users
	}

	matched := make([]*models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), query) ||
			strings.Contains(strings.ToLower(u.Email), query) ||
			strings.Contains(strings.ToLower(u.ID), query) {
			matched = append(matched, u)
		}
	}
	return matched
}

// Paginate slices users into a page, clamping page and size to sane bounds
func Paginate(users []*models.User, page, pageSize int) *models.UserPage {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	start := (page - 1) * pageSize
	if start > len(users) {
		start = len(users)
	}
	end := start + pageSize
	if end > len(users) {
		end = len(users)
	}

	return &models.UserPage{
		Users:    append([]*models.User{}, users[start:end]...),
		Total:    len(users),
		Page:     page,
		PageSize: pageSize,
	}
}
