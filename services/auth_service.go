package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatline/auth"
	"chatline/contract"
	"chatline/domain"
	"chatline/errors"

	"github.com/google/uuid"
)

// AuthService owns user accounts and session issuance. The realtime core
// never calls it; it runs before a connection is handed over.
type AuthService struct {
	log    *slog.Logger
	users  contract.UserStore
	tokens *auth.TokenIssuer
}

func NewAuthService(log *slog.Logger, users contract.UserStore, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req auth.RegisterRequest) (domain.User, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Avatar:       domain.DefaultAvatar,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.log.Info("User registered", "user", user.ID)
	return user, nil
}

// Login verifies the credentials and returns the user with a signed session
// token. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, req auth.LoginRequest) (domain.User, string, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return domain.User{}, "", err
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID.String(), user.Username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("signing token: %w", err)
	}
	return user, token, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}
