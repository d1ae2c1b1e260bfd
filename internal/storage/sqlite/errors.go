package sqlite

import (
	"strings"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// The SQLite driver does not export typed constraint errors, so violations
// are recognised by message.

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint failed") && (column == "" || strings.Contains(s, column))
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

// mapUserWriteError turns uniqueness violations on users into field errors.
func mapUserWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "users.email"):
		return &models.ValidationError{Field: "email", Message: "a user with that email already exists"}
	case isUniqueViolation(err, "users.username"):
		return &models.ValidationError{Field: "username", Message: "a user with that username already exists"}
	case isCheckViolation(err):
		return &models.ValidationError{Field: "user", Message: err.Error()}
	}
	return err
}

// mapDeleteError turns a foreign key failure on delete into a referential
// integrity error for the given entity.
func mapDeleteError(err error, entity, id string) error {
	if isForeignKeyViolation(err) {
		return &storage.ReferentialIntegrityError{Entity: entity, ID: id, Cause: err}
	}
	return err
}
