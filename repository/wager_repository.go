package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sportsbook/database"
	"sportsbook/models"

	"github.com/jackc/pgx/v5"
)

const wagerColumns = `
	id, user_id, selections, stake, total_odds, potential_payout,
	status, created_at, settled_at`

// WagerRepository implements the WagerRepository interface
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

func scanWager(row pgx.Row) (*models.Wager, error) {
	var wager models.Wager
	var selectionsJSON []byte

	err := row.Scan(
		&wager.ID,
		&wager.UserID,
		&selectionsJSON,
		&wager.Stake,
		&wager.TotalOdds,
		&wager.PotentialPayout,
		&wager.Status,
		&wager.CreatedAt,
		&wager.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(selectionsJSON, &wager.Selections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selections of wager %s: %w", wager.ID, err)
	}
	return &wager, nil
}

// Create inserts a new wager with its selections frozen as JSON
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	selectionsJSON, err := json.Marshal(wager.Selections)
	if err != nil {
		return fmt.Errorf("failed to marshal selections: %w", err)
	}

	query := `
		INSERT INTO wagers (id, user_id, selections, stake, total_odds, potential_payout, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		wager.ID,
		wager.UserID,
		selectionsJSON,
		wager.Stake,
		wager.TotalOdds,
		wager.PotentialPayout,
		wager.Status,
		wager.CreatedAt,
	).Scan(&wager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager for user %s: %w", wager.UserID, err)
	}
	return nil
}

// GetByID retrieves a wager by id
func (r *WagerRepository) GetByID(ctx context.Context, id string) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %s: %w", id, err)
	}
	return wager, nil
}

// Settle moves a pending wager to won or lost. A wager that is no longer pending
// does not match and nil is returned.
func (r *WagerRepository) Settle(ctx context.Context, id string, status models.WagerStatus) (*models.Wager, error) {
	query := `
		UPDATE wagers
		SET status = $2, settled_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + wagerColumns

	wager, err := scanWager(r.q.QueryRow(ctx, query, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle wager %s: %w", id, err)
	}
	return wager, nil
}

// ListByUser returns a user's wagers, newest first
func (r *WagerRepository) ListByUser(ctx context.Context, userID string) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers for user %s: %w", userID, err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}
	return wagers, nil
}
