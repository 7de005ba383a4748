package repository

import (
	"context"
	"errors"
	"fmt"

	"sportsbook/database"
	"sportsbook/models"

	"github.com/jackc/pgx/v5"
)

const transactionColumns = `
	id, user_id, type, amount, status, method, reference,
	reason, resolved_by, resolved_at, created_at`

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Amount,
		&tx.Status,
		&tx.Method,
		&tx.Reference,
		&tx.Reason,
		&tx.ResolvedBy,
		&tx.ResolvedAt,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create inserts a new transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount, status, method, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Amount,
		tx.Status,
		tx.Method,
		tx.Reference,
		tx.CreatedAt,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s transaction for user %s: %w", tx.Type, tx.UserID, err)
	}
	return nil
}

// GetByID retrieves a transaction by id
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return tx, nil
}

// Resolve moves a pending transaction to its final status. Only a row that is still
// pending matches, so a concurrent or repeated resolution returns nil.
func (r *TransactionRepository) Resolve(ctx context.Context, id string, txType models.TransactionType, status models.RequestStatus, adminID string, reason *string) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $3, resolved_by = $4, reason = $5, resolved_at = NOW()
		WHERE id = $1 AND type = $2 AND status = 'pending'
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id, txType, status, adminID, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transaction %s: %w", id, err)
	}
	return tx, nil
}

// ListByStatus returns transactions of one type and status, oldest first
func (r *TransactionRepository) ListByStatus(ctx context.Context, txType models.TransactionType, status models.RequestStatus) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type = $1 AND status = $2
		ORDER BY created_at ASC, id
	`
	return r.list(ctx, query, txType, status)
}

// ListByUser returns a user's transactions, newest first
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	return r.list(ctx, query, userID)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
