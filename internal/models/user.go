package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
// Participants reference users; a user is never owned by a party.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the login name (unique).
	Username string

	// Email is the user's email address (unique). It may also be used to log in.
	Email string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never expose this in API responses.
	PasswordHash string

	// Image is an optional avatar reference.
	Image *string

	// MobileNo is an optional phone number.
	MobileNo *string

	// Verified is set once the account activation token has been redeemed.
	Verified bool

	// IsStaff grants access to the administrative API.
	IsStaff bool

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the user account was last updated.
	UpdatedAt int64
}

// NewUser creates a new User with a generated ID and timestamps.
func NewUser(email, username, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// FullName joins first and last name with a single space, as shown in lists.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Validate checks field bounds and the email format.
func (u *User) Validate() error {
	if u.Username == "" {
		return invalid("username", "this field is required")
	}
	if err := validateLength("username", u.Username, 150); err != nil {
		return err
	}
	if u.Email == "" {
		return invalid("email", "this field is required")
	}
	if err := validateLength("email", u.Email, 100); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return invalid("email", "enter a valid email address")
	}
	if err := validateLength("first_name", u.FirstName, 30); err != nil {
		return err
	}
	if err := validateLength("last_name", u.LastName, 30); err != nil {
		return err
	}
	if err := validateOptionalLength("image", u.Image, 255); err != nil {
		return err
	}
	return validateOptionalLength("mobile_no", u.MobileNo, 20)
}
