package repository

import (
	"context"
	"errors"
	"fmt"

	"sportsbook/apperr"
	"sportsbook/database"
	"sportsbook/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `
	id, username, email, password_hash, role, balance,
	first_name, last_name, birth_date, phone, phone_verified, state,
	is_verified, last_username_change, created_at, updated_at`

// uniqueFields maps unique index names to the field reported in a conflict
var uniqueFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"users_phone_key":    "phone",
}

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Balance,
		&user.PersonalInfo.FirstName,
		&user.PersonalInfo.LastName,
		&user.PersonalInfo.BirthDate,
		&user.PersonalInfo.Phone,
		&user.PersonalInfo.PhoneVerified,
		&user.PersonalInfo.State,
		&user.IsVerified,
		&user.LastUsernameChange,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.q.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Create inserts a new user, filling in the timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, username, email, password_hash, role, balance,
			first_name, last_name, birth_date, phone, phone_verified, state, is_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Balance,
		user.PersonalInfo.FirstName,
		user.PersonalInfo.LastName,
		user.PersonalInfo.BirthDate,
		user.PersonalInfo.Phone,
		user.PersonalInfo.PhoneVerified,
		user.PersonalInfo.State,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if constraint, ok := database.UniqueViolation(err); ok {
		if field, known := uniqueFields[constraint]; known {
			return apperr.Conflict(field)
		}
		return apperr.Conflict("account")
	}
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	return nil
}

// UpdateProfile persists username and personal info
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2,
		    first_name = $3,
		    last_name = $4,
		    birth_date = $5,
		    phone = $6,
		    phone_verified = $7,
		    state = $8,
		    last_username_change = $9,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PersonalInfo.FirstName,
		user.PersonalInfo.LastName,
		user.PersonalInfo.BirthDate,
		user.PersonalInfo.Phone,
		user.PersonalInfo.PhoneVerified,
		user.PersonalInfo.State,
		user.LastUsernameChange,
	).Scan(&user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("user", user.ID)
	}
	if constraint, ok := database.UniqueViolation(err); ok {
		if field, known := uniqueFields[constraint]; known {
			return apperr.Conflict(field)
		}
		return apperr.Conflict("account")
	}
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", user.ID, err)
	}
	return nil
}

// AddBalance credits a user and returns the resulting balance
func (r *UserRepository) AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, apperr.NotFound("user", id)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to add balance for user %s: %w", id, err)
	}
	return balance, nil
}

// DeductBalance debits a user in a single conditional statement so concurrent
// debits can never take the balance below zero
func (r *UserRepository) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return decimal.Zero, fmt.Errorf("failed to check user %s: %w", id, err)
		}
		if !exists {
			return decimal.Zero, apperr.NotFound("user", id)
		}
		return decimal.Zero, apperr.ErrInsufficientBalance
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to deduct balance for user %s: %w", id, err)
	}
	return balance, nil
}

// GetAll returns every user, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
