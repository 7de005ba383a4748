package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const (
	testUserID  = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testAdminID = "a1b2c3d4-0000-4000-8000-000000000001"

	testWagerID      = "0b6f3e2a-8d41-4f6c-9a57-3c1d2e4f5a01"
	testDepositID    = "0b6f3e2a-8d41-4f6c-9a57-3c1d2e4f5a02"
	testWithdrawalID = "0b6f3e2a-8d41-4f6c-9a57-3c1d2e4f5a03"
	testTxID         = "0b6f3e2a-8d41-4f6c-9a57-3c1d2e4f5a04"
	testMissingID    = "0b6f3e2a-8d41-4f6c-9a57-3c1d2e4f5aff"
)

// testMocks holds the unit of work and repository mocks for one service test
type testMocks struct {
	Factory        *MockUnitOfWorkFactory
	UoW            *MockUnitOfWork
	UserRepo       *MockUserRepository
	TxRepo         *MockTransactionRepository
	WithdrawalRepo *MockWithdrawalRepository
	WagerRepo      *MockWagerRepository
	HistoryRepo    *MockBalanceHistoryRepository
	Events         *MockEventPublisher
}

func newTestMocks() *testMocks {
	uow := NewMockUnitOfWork()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)

	return &testMocks{
		Factory:        factory,
		UoW:            uow,
		UserRepo:       uow.userRepo,
		TxRepo:         uow.transactionRepo,
		WithdrawalRepo: uow.withdrawalRepo,
		WagerRepo:      uow.wagerRepo,
		HistoryRepo:    uow.balanceHistoryRepo,
		Events:         uow.eventBus,
	}
}

// expectCommit configures a unit of work that begins, commits and rolls back (no-op) on defer
func (m *testMocks) expectCommit(ctx context.Context) {
	m.UoW.On("Begin", ctx).Return(nil)
	m.UoW.On("Commit").Return(nil)
	m.UoW.On("Rollback").Return(nil)
}

// expectRollback configures a unit of work that is never committed
func (m *testMocks) expectRollback(ctx context.Context) {
	m.UoW.On("Begin", ctx).Return(nil)
	m.UoW.On("Rollback").Return(nil)
}

func (m *testMocks) assertAll(t *testing.T) {
	m.Factory.AssertExpectations(t)
	m.UoW.AssertExpectations(t)
	m.UserRepo.AssertExpectations(t)
	m.TxRepo.AssertExpectations(t)
	m.WithdrawalRepo.AssertExpectations(t)
	m.WagerRepo.AssertExpectations(t)
	m.HistoryRepo.AssertExpectations(t)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by numeric value rather than representation
func decEq(expected string) interface{} {
	want := dec(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func strPtr(s string) *string {
	return &s
}
