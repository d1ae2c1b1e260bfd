package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id matches no rows.
	ErrNotFound = errors.New("record not found")

	// ErrReferentialIntegrity is matched by every *ReferentialIntegrityError.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
)

// NotFoundError names the entity and id that could not be found.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ReferentialIntegrityError reports a delete blocked by dependent records.
type ReferentialIntegrityError struct {
	Entity     string
	ID         string
	Dependents []string

	// Cause is the driver error when the block came from a constraint.
	Cause error
}

func (e *ReferentialIntegrityError) Error() string {
	if len(e.Dependents) == 0 {
		return fmt.Sprintf("cannot delete %s %s: it is referenced by other records", e.Entity, e.ID)
	}
	return fmt.Sprintf("cannot delete %s %s: referenced by %s", e.Entity, e.ID, strings.Join(e.Dependents, ", "))
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }
func (e *ReferentialIntegrityError) Unwrap() error        { return e.Cause }

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsReferentialIntegrity reports whether err is (or wraps) ErrReferentialIntegrity.
func IsReferentialIntegrity(err error) bool { return errors.Is(err, ErrReferentialIntegrity) }
