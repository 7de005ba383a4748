package cmd

import (
	"context"
	"fmt"
	"strings"

	"sportsbook/config"
	"sportsbook/database"
	"sportsbook/models"

	log "github.com/sirupsen/logrus"
)

// RoleGranter promotes an account by email. *database.DB satisfies it.
type RoleGranter interface {
	GrantRole(ctx context.Context, email string, role models.Role) (string, error)
}

// Admin runs an account administration subcommand: "grant <email>" or "revoke <email>"
func Admin(ctx context.Context, args []string) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return runAdmin(ctx, db, args)
}

func runAdmin(ctx context.Context, granter RoleGranter, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sportsbook admin [grant|revoke] <email>")
	}

	var role models.Role
	switch args[0] {
	case "grant":
		role = models.RoleAdmin
	case "revoke":
		role = models.RoleUser
	default:
		return fmt.Errorf("unknown admin command: %s", args[0])
	}

	email := strings.TrimSpace(args[1])
	if email == "" {
		return fmt.Errorf("email is required")
	}

	userID, err := granter.GrantRole(ctx, email, role)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"email":  email,
		"role":   role,
	}).Info("Role updated")
	return nil
}
