package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/partyplanner/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new, unverified user account.
	Register(ctx context.Context, email, username, credential string) (*models.User, error)

	// Authenticate verifies the credential for a login, which may be a
	// username or an email address.
	Authenticate(ctx context.Context, login, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// Field names used for errors that are not tied to a single input.
const NonFieldErrors = "nonFieldErrors"

// Error codes reported to clients.
const (
	CodePasswordMismatch  = "password_mismatch"
	CodePasswordTooShort  = "password_too_short"
	CodePasswordNumeric   = "password_entirely_numeric"
	CodeUnique            = "unique"
	CodeInvalid           = "invalid"
	CodeInvalidToken      = "invalid_token"
	CodeAlreadyVerified   = "already_verified"
	CodeInvalidCredential = "invalid_credentials"
	CodeNotVerified       = "not_verified"
	CodeExpiredToken      = "expired_token"
)

// FieldError is a single client-facing error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// FieldErrors is returned by identity operations that fail because of the
// caller's input rather than an internal fault.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func fieldError(field, message, code string) FieldErrors {
	return FieldErrors{{Field: field, Message: message, Code: code}}
}

// fromValidation converts a model validation failure into a field error.
func fromValidation(ve *models.ValidationError) FieldErrors {
	code := CodeInvalid
	if strings.Contains(ve.Message, "already exists") {
		code = CodeUnique
	}
	return fieldError(ve.Field, ve.Message, code)
}
