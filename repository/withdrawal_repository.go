package repository

import (
	"context"
	"errors"
	"fmt"

	"sportsbook/database"
	"sportsbook/models"

	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `
	id, user_id, transaction_id, amount, method_type, method_details,
	status, reason, resolved_by, resolved_at, requested_at`

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal request repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.TransactionID,
		&req.Amount,
		&req.MethodType,
		&req.MethodDetails,
		&req.Status,
		&req.Reason,
		&req.ResolvedBy,
		&req.ResolvedAt,
		&req.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (id, user_id, transaction_id, amount, method_type, method_details, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING requested_at
	`

	err := r.q.QueryRow(ctx, query,
		req.ID,
		req.UserID,
		req.TransactionID,
		req.Amount,
		req.MethodType,
		req.MethodDetails,
		req.Status,
		req.RequestedAt,
	).Scan(&req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for user %s: %w", req.UserID, err)
	}
	return nil
}

// GetByID retrieves a withdrawal request by id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	req, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal request %s: %w", id, err)
	}
	return req, nil
}

// Resolve moves a pending request to its final status, returning nil if it was not pending
func (r *WithdrawalRepository) Resolve(ctx context.Context, id string, status models.RequestStatus, adminID string, reason *string) (*models.WithdrawalRequest, error) {
	query := `
		UPDATE withdrawal_requests
		SET status = $2, resolved_by = $3, reason = $4, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + withdrawalColumns

	req, err := scanWithdrawal(r.q.QueryRow(ctx, query, id, status, adminID, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve withdrawal request %s: %w", id, err)
	}
	return req, nil
}

// ListByStatus returns requests in one status, oldest first
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY requested_at ASC, id
	`

	rows, err := r.q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawal requests: %w", err)
	}
	return requests, nil
}
