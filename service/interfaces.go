package service

import (
	"context"
	"time"

	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by id, returning nil when absent
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by email (case-insensitive), returning nil when absent
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a new user. Duplicate username, email or phone yields apperr.ErrConflict
	Create(ctx context.Context, user *models.User) error

	// UpdateProfile persists username and personal info changes
	UpdateProfile(ctx context.Context, user *models.User) error

	// AddBalance credits a user and returns the new balance
	AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// DeductBalance debits a user only if the balance covers the amount, returning the new balance
	DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// GetAll returns all users, newest first
	GetAll(ctx context.Context) ([]*models.User, error)
}

// TransactionRepository defines the interface for deposit and withdrawal transactions
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)

	// Resolve moves a pending transaction of the given type to status.
	// It returns nil when no pending transaction matched.
	Resolve(ctx context.Context, id string, txType models.TransactionType, status models.RequestStatus, adminID string, reason *string) (*models.Transaction, error)

	// ListByStatus returns transactions in review order, oldest first
	ListByStatus(ctx context.Context, txType models.TransactionType, status models.RequestStatus) ([]*models.Transaction, error)

	// ListByUser returns a user's transactions, newest first
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
}

// WithdrawalRepository defines the interface for withdrawal request data access
type WithdrawalRepository interface {
	Create(ctx context.Context, req *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id string) (*models.WithdrawalRequest, error)

	// Resolve moves a pending request to status, returning nil when no pending request matched
	Resolve(ctx context.Context, id string, status models.RequestStatus, adminID string, reason *string) (*models.WithdrawalRequest, error)

	// ListByStatus returns requests oldest first
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error)
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	Create(ctx context.Context, wager *models.Wager) error
	GetByID(ctx context.Context, id string) (*models.Wager, error)

	// Settle moves a pending wager to a terminal status, returning nil when no pending wager matched
	Settle(ctx context.Context, id string, status models.WagerStatus) (*models.Wager, error)

	// ListByUser returns a user's wagers, newest first
	ListByUser(ctx context.Context, userID string) ([]*models.Wager, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and discards queued events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	TransactionRepository() TransactionRepository
	WithdrawalRepository() WithdrawalRepository
	WagerRepository() WagerRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	State     string
	BirthDate *time.Time
}

// ProfileUpdate carries optional self-service changes; nil fields are left untouched
type ProfileUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Phone     *string
	State     *string
	BirthDate *time.Time
}

// UserService defines the interface for account operations
type UserService interface {
	// Register creates an account with the user role and a zero balance
	Register(ctx context.Context, input RegisterInput) (*models.User, error)

	// Authenticate verifies credentials, failing with apperr.ErrAuthRequired on mismatch
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// GetUser returns a user or apperr.ErrNotFound
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// UpdateProfile applies a profile update, enforcing the username change cooldown
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error)

	// ListTransactions returns the caller's own deposits and withdrawals, newest first
	ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error)
}

// WagerService defines the interface for placing bets
type WagerService interface {
	// PlaceWager debits the stake and persists a pending wager with frozen odds
	PlaceWager(ctx context.Context, userID string, selections []models.Selection, stake decimal.Decimal) (*models.Wager, error)

	// ListUserWagers returns a user's wagers, newest first
	ListUserWagers(ctx context.Context, userID string) ([]*models.Wager, error)
}

// SettlementService defines the interface for resolving wagers
type SettlementService interface {
	// SettleWager moves a pending wager to won or lost, crediting a win exactly once
	SettleWager(ctx context.Context, wagerID string, outcome models.WagerStatus) (*models.Wager, error)
}

// DepositService defines the deposit request lifecycle
type DepositService interface {
	CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, method, reference string) (*models.Transaction, error)
	ApproveDeposit(ctx context.Context, transactionID, adminID string) (*models.Transaction, error)
	RejectDeposit(ctx context.Context, transactionID, adminID, reason string) (*models.Transaction, error)
}

// WithdrawalService defines the withdrawal request lifecycle
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, methodType models.WithdrawalMethod, methodDetails string) (*models.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, requestID, adminID string) (*models.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, requestID, adminID, reason string) (*models.WithdrawalRequest, error)
}

// AdminService defines the read side of the admin console
type AdminService interface {
	ListPendingDeposits(ctx context.Context) ([]*models.Transaction, error)
	ListPendingWithdrawals(ctx context.Context) ([]*models.WithdrawalRequest, error)
	ListUsers(ctx context.Context, query string, page, pageSize int) (*models.UserPage, error)
	UserHistory(ctx context.Context, userID string) (*models.UserHistory, error)
}
