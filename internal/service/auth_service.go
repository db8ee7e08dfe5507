package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foreclosure-assist/internal/model"
	"foreclosure-assist/internal/repository"
	"foreclosure-assist/pkg/rbac"
	"foreclosure-assist/pkg/util"
)

const minPasswordLen = 8

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	userRepo  UserStore
	jwtSecret string
}

func NewAuthService(userRepo UserStore, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates a regular user.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	return s.CreateUser(ctx, email, password, rbac.RoleUser)
}

// CreateUser creates a user with an explicit role; the CLI uses it to seed admins.
func (s *AuthService) CreateUser(ctx context.Context, email, password, role string) (*model.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if !rbac.ValidRole(role) {
		return nil, fmt.Errorf("%w: role", ErrInvalidInput)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login checks user credentials and returns JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
