package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/middleware"
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// AuthResult is the payload of every identity mutation. Input problems are
// reported in Errors with Success false; only internal faults are returned
// as Go errors.
type AuthResult struct {
	Success      bool
	Errors       []auth.FieldError
	Token        string
	RefreshToken string
	User         *models.User
}

// AuthService shapes identity provider results for the API layer.
type AuthService struct {
	provider *auth.Provider
	logger   *slog.Logger
}

// NewAuthService creates a new authentication gateway.
func NewAuthService(provider *auth.Provider, logger *slog.Logger) *AuthService {
	return &AuthService{
		provider: provider,
		logger:   logger,
	}
}

// result turns a provider outcome into an AuthResult.
func (s *AuthService) result(op string, user *models.User, pair *auth.TokenPair, err error) (*AuthResult, error) {
	if err != nil {
		if fe, ok := auth.AsFieldErrors(err); ok {
			s.logger.Info(op+" rejected", "errors", fe.Error())
			return &AuthResult{Success: false, Errors: fe}, nil
		}
		s.logger.Error(op+" failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &AuthResult{Success: true, User: user, Errors: []auth.FieldError{}}
	if pair != nil {
		res.Token = pair.Token
		res.RefreshToken = pair.RefreshToken
	}
	return res, nil
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, email, username, password1, password2 string) (*AuthResult, error) {
	s.logger.Info("Register request", "email", email, "username", username)
	user, pair, err := s.provider.Register(ctx, email, username, password1, password2)
	res, err := s.result("Register", user, pair, err)
	if err == nil && res.Success {
		s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	}
	return res, err
}

// VerifyAccount consumes an activation token.
func (s *AuthService) VerifyAccount(ctx context.Context, token string) (*AuthResult, error) {
	user, err := s.provider.VerifyAccount(ctx, token)
	return s.result("VerifyAccount", user, nil, err)
}

// TokenAuth logs in with a username or email and a password.
func (s *AuthService) TokenAuth(ctx context.Context, username, password string) (*AuthResult, error) {
	s.logger.Info("Login request", "username", username)
	user, pair, err := s.provider.TokenAuth(ctx, username, password)
	return s.result("TokenAuth", user, pair, err)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	user, pair, err := s.provider.Refresh(ctx, refreshToken)
	return s.result("RefreshToken", user, pair, err)
}

// Me returns the authenticated user, or nil for anonymous requests and
// tokens whose user no longer exists.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, nil
	}
	user, err := s.provider.User(ctx, userID)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get current user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return user, nil
}

// Users lists every identity.
func (s *AuthService) Users(ctx context.Context) ([]*models.User, error) {
	users, err := s.provider.Users(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
