package service

import (
	"context"
	"testing"
	"time"

	"sportsbook/apperr"
	"sportsbook/auth"
	"sportsbook/events"
	"sportsbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const usernameCooldown = 30 * 24 * time.Hour

func newUserServiceAt(m *testMocks, now time.Time) *userService {
	svc := NewUserService(m.Factory, usernameCooldown).(*userService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewUserService(m.Factory, usernameCooldown)

	m.expectCommit(ctx)
	m.UserRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "maria" &&
			u.Email == "maria@example.com" &&
			u.Role == models.RoleUser &&
			u.Balance.IsZero() &&
			u.PersonalInfo.Phone != nil && *u.PersonalInfo.Phone == "+584145555555"
	})).Return(nil)

	user, err := svc.Register(ctx, RegisterInput{
		Username:  " maria ",
		Email:     "Maria@Example.com",
		Password:  "correct horse",
		FirstName: "María",
		Phone:     strPtr(" +584145555555 "),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("correct horse", user.PasswordHash))
	assert.Len(t, m.Events.OfType(events.EventTypeUserRegistered), 1)
	m.assertAll(t)
}

func TestUserService_Register_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@b.co", Password: "password1"}},
		{"username with space", RegisterInput{Username: "john doe", Email: "a@b.co", Password: "password1"}},
		{"username with at", RegisterInput{Username: "john@doe", Email: "a@b.co", Password: "password1"}},
		{"invalid email", RegisterInput{Username: "john", Email: "not-an-email", Password: "password1"}},
		{"short password", RegisterInput{Username: "john", Email: "a@b.co", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMocks()
			svc := NewUserService(m.Factory, usernameCooldown)

			_, err := svc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			m.Factory.AssertNotCalled(t, "Create")
		})
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewUserService(m.Factory, usernameCooldown)

	m.expectRollback(ctx)
	m.UserRepo.On("Create", ctx, mock.Anything).Return(apperr.Conflict("email"))

	_, err := svc.Register(ctx, RegisterInput{Username: "maria", Email: "maria@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Empty(t, m.Events.Events())
	m.assertAll(t)
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()
	hashed, err := auth.HashPassword("password1")
	require.NoError(t, err)
	stored := &models.User{ID: testUserID, Email: "maria@example.com", PasswordHash: hashed}

	t.Run("valid credentials", func(t *testing.T) {
		m := newTestMocks()
		svc := NewUserService(m.Factory, usernameCooldown)
		m.expectRollback(ctx)
		m.UserRepo.On("GetByEmail", ctx, "maria@example.com").Return(stored, nil)

		user, err := svc.Authenticate(ctx, " MARIA@example.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, testUserID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		m := newTestMocks()
		svc := NewUserService(m.Factory, usernameCooldown)
		m.expectRollback(ctx)
		m.UserRepo.On("GetByEmail", ctx, "maria@example.com").Return(stored, nil)

		_, err := svc.Authenticate(ctx, "maria@example.com", "password2")
		assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	})

	t.Run("unknown email", func(t *testing.T) {
		m := newTestMocks()
		svc := NewUserService(m.Factory, usernameCooldown)
		m.expectRollback(ctx)
		m.UserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := svc.Authenticate(ctx, "ghost@example.com", "password1")
		assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	})
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewUserService(m.Factory, usernameCooldown)

	m.expectRollback(ctx)
	m.UserRepo.On("GetByID", ctx, "missing").Return(nil, nil)

	_, err := svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserService_UpdateProfile_UsernameCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("within cooldown", func(t *testing.T) {
		m := newTestMocks()
		svc := newUserServiceAt(m, now)
		m.expectRollback(ctx)

		lastChange := now.Add(-10 * 24 * time.Hour)
		m.UserRepo.On("GetByID", ctx, testUserID).Return(&models.User{
			ID: testUserID, Username: "maria", LastUsernameChange: &lastChange,
		}, nil)

		_, err := svc.UpdateProfile(ctx, testUserID, ProfileUpdate{Username: strPtr("maria_v")})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Contains(t, err.Error(), lastChange.Add(usernameCooldown).Format(time.RFC3339))
		m.UserRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
	})

	t.Run("after cooldown", func(t *testing.T) {
		m := newTestMocks()
		svc := newUserServiceAt(m, now)
		m.expectCommit(ctx)

		lastChange := now.Add(-31 * 24 * time.Hour)
		m.UserRepo.On("GetByID", ctx, testUserID).Return(&models.User{
			ID: testUserID, Username: "maria", LastUsernameChange: &lastChange,
		}, nil)
		m.UserRepo.On("UpdateProfile", ctx, mock.Anything).Return(nil)

		user, err := svc.UpdateProfile(ctx, testUserID, ProfileUpdate{Username: strPtr("maria_v")})
		require.NoError(t, err)
		assert.Equal(t, "maria_v", user.Username)
		require.NotNil(t, user.LastUsernameChange)
		assert.Equal(t, now, *user.LastUsernameChange)
		m.assertAll(t)
	})

	t.Run("same username skips cooldown", func(t *testing.T) {
		m := newTestMocks()
		svc := newUserServiceAt(m, now)
		m.expectCommit(ctx)

		lastChange := now.Add(-time.Hour)
		m.UserRepo.On("GetByID", ctx, testUserID).Return(&models.User{
			ID: testUserID, Username: "maria", LastUsernameChange: &lastChange,
		}, nil)
		m.UserRepo.On("UpdateProfile", ctx, mock.Anything).Return(nil)

		user, err := svc.UpdateProfile(ctx, testUserID, ProfileUpdate{Username: strPtr("maria"), State: strPtr("Zulia")})
		require.NoError(t, err)
		assert.Equal(t, "Zulia", user.PersonalInfo.State)
		assert.Equal(t, lastChange, *user.LastUsernameChange)
	})
}

func TestUserService_UpdateProfile_PhoneChangeResetsVerification(t *testing.T) {
	ctx := context.Background()
	m := newTestMocks()
	svc := NewUserService(m.Factory, usernameCooldown)

	m.expectCommit(ctx)
	m.UserRepo.On("GetByID", ctx, testUserID).Return(&models.User{
		ID:       testUserID,
		Username: "maria",
		PersonalInfo: models.PersonalInfo{
			Phone:         strPtr("+584140000000"),
			PhoneVerified: true,
		},
	}, nil)
	m.UserRepo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *models.User) bool {
		return !u.PersonalInfo.PhoneVerified && *u.PersonalInfo.Phone == "+584141111111"
	})).Return(nil)

	_, err := svc.UpdateProfile(ctx, testUserID, ProfileUpdate{Phone: strPtr("+584141111111")})
	require.NoError(t, err)
	m.assertAll(t)
}
