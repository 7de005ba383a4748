package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"sportsbook/apperr"
	"sportsbook/auth"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	cooldown   time.Duration
	now        func() time.Time
}

// NewUserService creates a new user service. cooldown limits how often a username may change.
func NewUserService(uowFactory UnitOfWorkFactory, cooldown time.Duration) UserService {
	return &userService{
		uowFactory: uowFactory,
		cooldown:   cooldown,
		now:        time.Now,
	}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("email is invalid")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		Balance:      decimal.Zero,
		PersonalInfo: models.PersonalInfo{
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			BirthDate: input.BirthDate,
			Phone:     normalizePhone(input.Phone),
			State:     strings.TrimSpace(input.State),
		},
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": user.Username,
	}).Info("User registered")

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrAuthRequired)
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}

	now := s.now().UTC()

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username != user.Username {
			if err := validateUsername(username); err != nil {
				return nil, err
			}
			if !user.CanChangeUsername(now, s.cooldown) {
				next := user.LastUsernameChange.Add(s.cooldown)
				return nil, apperr.Validation("username can be changed again after %s", next.Format(time.RFC3339))
			}
			user.Username = username
			user.LastUsernameChange = &now
		}
	}
	if update.FirstName != nil {
		user.PersonalInfo.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.PersonalInfo.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.State != nil {
		user.PersonalInfo.State = strings.TrimSpace(*update.State)
	}
	if update.BirthDate != nil {
		user.PersonalInfo.BirthDate = update.BirthDate
	}
	if update.Phone != nil {
		phone := normalizePhone(update.Phone)
		if !samePhone(phone, user.PersonalInfo.Phone) {
			user.PersonalInfo.Phone = phone
			user.PersonalInfo.PhoneVerified = false
		}
	}

	if err := uow.UserRepository().UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txs, err := uow.TransactionRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return apperr.Validation("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if strings.ContainsAny(username, " \t\n@") {
		return apperr.Validation("username cannot contain spaces or @")
	}
	return nil
}

// normalizePhone trims a phone number, mapping blank input to nil
func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func samePhone(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
