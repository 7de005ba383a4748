package auth

import (
	"fmt"

	"sportsbook/apperr"
	"sportsbook/models"
)

// Role aliases re-exported for callers that only deal with sessions
const (
	RoleUser  = models.RoleUser
	RoleAdmin = models.RoleAdmin
)

// Session is the authenticated identity attached to a request
type Session struct {
	UserID   string
	Username string
	Role     models.Role
}

// Authorize checks that a session exists and carries the required role.
// Admins satisfy every role.
func Authorize(session *Session, required models.Role) error {
	if session == nil || session.UserID == "" {
		return apperr.ErrAuthRequired
	}
	if required == models.RoleAdmin && session.Role != models.RoleAdmin {
		return fmt.Errorf("%w: %s role required", apperr.ErrForbidden, required)
	}
	return nil
}
