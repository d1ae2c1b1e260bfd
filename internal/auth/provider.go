package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// ActivationSender delivers an account activation token to a new user.
type ActivationSender interface {
	SendActivation(ctx context.Context, user *models.User, token string) error
}

// LogSender writes activation tokens to the log instead of mailing them.
type LogSender struct{}

func (LogSender) SendActivation(ctx context.Context, user *models.User, token string) error {
	slog.InfoContext(ctx, "Activation token issued", "user_id", user.ID, "email", user.Email, "token", token)
	return nil
}

// Provider is the identity provider: registration, verification, login and
// token renewal.
type Provider struct {
	authenticator   Authenticator
	users           UserStorage
	tokens          *JWTManager
	sender          ActivationSender
	allowUnverified bool
}

// ProviderConfig collects Provider dependencies.
type ProviderConfig struct {
	Authenticator Authenticator
	Users         UserStorage
	Tokens        *JWTManager
	// Sender defaults to LogSender.
	Sender ActivationSender
	// AllowLoginNotVerified lets unverified users obtain tokens.
	AllowLoginNotVerified bool
}

// NewProvider creates an identity provider.
func NewProvider(cfg ProviderConfig) *Provider {
	sender := cfg.Sender
	if sender == nil {
		sender = LogSender{}
	}
	return &Provider{
		authenticator:   cfg.Authenticator,
		users:           cfg.Users,
		tokens:          cfg.Tokens,
		sender:          sender,
		allowUnverified: cfg.AllowLoginNotVerified,
	}
}

// Tokens returns the provider's token manager.
func (p *Provider) Tokens() *JWTManager {
	return p.tokens
}

// Register creates an account and sends its activation token. A token pair is
// returned only when unverified users may log in.
func (p *Provider) Register(ctx context.Context, email, username, password1, password2 string) (*models.User, *TokenPair, error) {
	if password1 != password2 {
		return nil, nil, fieldError("password2", "The two password fields didn't match.", CodePasswordMismatch)
	}

	user, err := p.authenticator.Register(ctx, email, username, password1)
	if err != nil {
		return nil, nil, err
	}

	activation, err := p.tokens.Generate(user, PurposeActivation)
	if err != nil {
		return nil, nil, err
	}
	if err := p.sender.SendActivation(ctx, user, activation); err != nil {
		return nil, nil, fmt.Errorf("failed to send activation: %w", err)
	}

	if !p.allowUnverified {
		return user, nil, nil
	}
	pair, err := p.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// VerifyAccount marks the user named by an activation token as verified.
func (p *Provider) VerifyAccount(ctx context.Context, token string) (*models.User, error) {
	claims, err := p.tokens.Validate(token, PurposeActivation)
	if err != nil {
		return nil, fieldError(NonFieldErrors, "Invalid token.", CodeInvalidToken)
	}

	user, err := p.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fieldError(NonFieldErrors, "Invalid token.", CodeInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Verified {
		return nil, fieldError(NonFieldErrors, "Account already verified.", CodeAlreadyVerified)
	}

	user.Verified = true
	if err := p.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}
	return user, nil
}

// TokenAuth logs a user in by username or email.
func (p *Provider) TokenAuth(ctx context.Context, login, password string) (*models.User, *TokenPair, error) {
	user, err := p.authenticator.Authenticate(ctx, login, password)
	if err != nil {
		return nil, nil, err
	}
	if !user.Verified && !p.allowUnverified {
		return nil, nil, fieldError(NonFieldErrors, "Please verify your account.", CodeNotVerified)
	}

	pair, err := p.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := p.tokens.Validate(refreshToken, PurposeRefresh)
	if err != nil {
		return nil, nil, fieldError(NonFieldErrors, "Invalid refresh token.", CodeInvalidToken)
	}

	user, err := p.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fieldError(NonFieldErrors, "Invalid refresh token.", CodeInvalidToken)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	pair, err := p.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// User returns the user with the given id.
func (p *Provider) User(ctx context.Context, id string) (*models.User, error) {
	return p.users.GetUserByID(ctx, id)
}

// Users lists every identity ordered by username.
func (p *Provider) Users(ctx context.Context) ([]*models.User, error) {
	return p.users.ListUsers(ctx, storage.UserFilter{})
}
