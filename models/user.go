package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the capability carried by an authenticated user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// PersonalInfo holds the self-service profile fields of a user
type PersonalInfo struct {
	FirstName     string     `db:"first_name" json:"firstName"`
	LastName      string     `db:"last_name" json:"lastName"`
	BirthDate     *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	PhoneVerified bool       `db:"phone_verified" json:"phoneVerified"`
	State         string     `db:"state" json:"state"`
}

// User represents a registered account with a wallet balance
type User struct {
	ID                 string          `db:"id" json:"id"`
	Username           string          `db:"username" json:"username"`
	Email              string          `db:"email" json:"email"`
	PasswordHash       string          `db:"password_hash" json:"-"`
	Role               Role            `db:"role" json:"role"`
	Balance            decimal.Decimal `db:"balance" json:"balance"`
	PersonalInfo       PersonalInfo    `json:"personalInfo"`
	IsVerified         bool            `db:"is_verified" json:"isVerified"`
	LastUsernameChange *time.Time      `db:"last_username_change" json:"lastUsernameChange,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanChangeUsername reports whether the cooldown since the last username change has elapsed
func (u *User) CanChangeUsername(now time.Time, cooldown time.Duration) bool {
	if u.LastUsernameChange == nil {
		return true
	}
	return !now.Before(u.LastUsernameChange.Add(cooldown))
}

// NewID returns a fresh opaque identifier
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the form NewID produces
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
