package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/pkg/rbac"
	"foreclosure-assist/pkg/util"
)

const testSecret = "test-secret"

func TestRegister(t *testing.T) {
	users := new(mockUsers)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "jane@example.com" && u.Role == rbac.RoleUser && u.PasswordHash != "password123"
	})).Return(nil)

	svc := NewAuthService(users, testSecret)
	u, err := svc.Register(context.Background(), " Jane@Example.com ", "password123")

	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.True(t, util.CheckPassword("password123", u.PasswordHash))
	users.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(new(mockUsers), testSecret)

	_, err := svc.Register(context.Background(), "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(context.Background(), "a@b.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateUser(context.Background(), "a@b.com", "password123", "root")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := new(mockUsers)
	users.On("CreateUser", mock.Anything, mock.Anything).
		Return(fmt.Errorf("create user: %w", repository.ErrDuplicate))

	_, err := NewAuthService(users, testSecret).Register(context.Background(), "a@b.com", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	users := new(mockUsers)
	users.On("FindByEmail", mock.Anything, "admin@example.com").
		Return(&model.User{ID: 7, Email: "admin@example.com", PasswordHash: hash, Role: rbac.RoleAdmin}, nil)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").
		Return(nil, fmt.Errorf("find user: %w", repository.ErrNotFound))

	svc := NewAuthService(users, testSecret)

	token, u, err := svc.Login(context.Background(), "Admin@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	claims, err := util.ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)

	_, _, err = svc.Login(context.Background(), "admin@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
