package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter storage.UserFilter) ([]*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// PasswordOption configures a PasswordAuthenticator.
type PasswordOption func(*PasswordAuthenticator)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) PasswordOption {
	return func(a *PasswordAuthenticator) { a.cost = cost }
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, opts ...PasswordOption) *PasswordAuthenticator {
	a := &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateCredential checks if the password meets minimum requirements.
// All failures are reported against password2.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	var errs FieldErrors
	if len([]rune(credential)) < MinPasswordLength {
		errs = append(errs, FieldError{
			Field:   "password2",
			Message: fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength),
			Code:    CodePasswordTooShort,
		})
	}
	if credential != "" && strings.IndexFunc(credential, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		errs = append(errs, FieldError{
			Field:   "password2",
			Message: "This password is entirely numeric.",
			Code:    CodePasswordNumeric,
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Register creates a new unverified user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, username, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	var errs FieldErrors
	if email != "" {
		if _, err := a.storage.GetUserByEmail(ctx, email); err == nil {
			errs = append(errs, FieldError{Field: "email", Message: "A user with that email already exists.", Code: CodeUnique})
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}
	if username != "" {
		if _, err := a.storage.GetUserByUsername(ctx, username); err == nil {
			errs = append(errs, FieldError{Field: "username", Message: "A user with that username already exists.", Code: CodeUnique})
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, username, string(hashedPassword))
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if ve, ok := models.AsValidation(err); ok {
			return nil, fromValidation(ve)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the login and password, returning the user if valid.
// The login is tried as a username first, then as an email address.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, login, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByUsername(ctx, login)
	if errors.Is(err, storage.ErrNotFound) && strings.Contains(login, "@") {
		user, err = a.storage.GetUserByEmail(ctx, login)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, invalidCredentials()
	}

	return user, nil
}

func invalidCredentials() FieldErrors {
	return fieldError(NonFieldErrors, "Please, enter valid credentials.", CodeInvalidCredential)
}

// HashPassword hashes a password at the authenticator's cost, for tools that
// create users directly.
func (a *PasswordAuthenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
