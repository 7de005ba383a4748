package server

import (
	"context"
	"errors"

	"sportsbook/models"
	"sportsbook/odds"
	"sportsbook/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, input service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID string, update service.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, update)
	return userArg(args, 0), args.Error(1)
}

func (m *mockUserService) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func userArg(args mock.Arguments, i int) *models.User {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*models.User)
}

type mockWagerService struct{ mock.Mock }

func (m *mockWagerService) PlaceWager(ctx context.Context, userID string, selections []models.Selection, stake decimal.Decimal) (*models.Wager, error) {
	args := m.Called(ctx, userID, selections, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *mockWagerService) ListUserWagers(ctx context.Context, userID string) ([]*models.Wager, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

type mockSettlementService struct{ mock.Mock }

func (m *mockSettlementService) SettleWager(ctx context.Context, wagerID string, outcome models.WagerStatus) (*models.Wager, error) {
	args := m.Called(ctx, wagerID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

type mockDepositService struct{ mock.Mock }

func (m *mockDepositService) CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, method, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, method, reference)
	return txArg(args), args.Error(1)
}

func (m *mockDepositService) ApproveDeposit(ctx context.Context, transactionID, adminID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID, adminID)
	return txArg(args), args.Error(1)
}

func (m *mockDepositService) RejectDeposit(ctx context.Context, transactionID, adminID, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID, adminID, reason)
	return txArg(args), args.Error(1)
}

func txArg(args mock.Arguments) *models.Transaction {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Transaction)
}

type mockWithdrawalService struct{ mock.Mock }

func (m *mockWithdrawalService) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, methodType models.WithdrawalMethod, methodDetails string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, amount, methodType, methodDetails)
	return withdrawalArg(args), args.Error(1)
}

func (m *mockWithdrawalService) ApproveWithdrawal(ctx context.Context, requestID, adminID string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, adminID)
	return withdrawalArg(args), args.Error(1)
}

func (m *mockWithdrawalService) RejectWithdrawal(ctx context.Context, requestID, adminID, reason string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, adminID, reason)
	return withdrawalArg(args), args.Error(1)
}

func withdrawalArg(args mock.Arguments) *models.WithdrawalRequest {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.WithdrawalRequest)
}

type mockAdminService struct{ mock.Mock }

func (m *mockAdminService) ListPendingDeposits(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *mockAdminService) ListPendingWithdrawals(ctx context.Context) ([]*models.WithdrawalRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WithdrawalRequest), args.Error(1)
}

func (m *mockAdminService) ListUsers(ctx context.Context, query string, page, pageSize int) (*models.UserPage, error) {
	args := m.Called(ctx, query, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPage), args.Error(1)
}

func (m *mockAdminService) UserHistory(ctx context.Context, userID string) (*models.UserHistory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserHistory), args.Error(1)
}

type fakeOdds struct {
	events []odds.Event
	sports []string
}

func (f *fakeOdds) GetOdds(_ context.Context, sport string) []odds.Event {
	f.sports = append(f.sports, sport)
	if f.events == nil {
		return []odds.Event{}
	}
	return f.events
}

type fakeHealth struct{ down bool }

func (f fakeHealth) Health(context.Context) error {
	if f.down {
		return errors.New("connection refused")
	}
	return nil
}
