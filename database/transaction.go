package database

import (
	"context"
	"errors"
	"fmt"

	"sportsbook/apperr"
	"sportsbook/models"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// WithTransaction executes a function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GrantRole sets the role of the account registered under email and returns its id.
// It is used to bootstrap the first admin, who cannot be promoted through the API.
func (db *DB) GrantRole(ctx context.Context, email string, role models.Role) (string, error) {
	var userID string
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var current models.Role
		err := tx.QueryRow(ctx,
			`SELECT id, role FROM users WHERE LOWER(email) = LOWER($1) FOR UPDATE`,
			email,
		).Scan(&userID, &current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user", email)
		}
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		if current == role {
			log.WithFields(log.Fields{
				"userID": userID,
				"role":   role,
			}).Info("User already holds role")
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`,
			userID, role,
		); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		log.WithFields(log.Fields{
			"userID":   userID,
			"role":     role,
			"previous": current,
		}).Info("Granted role")
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}
