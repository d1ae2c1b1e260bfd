package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Theme is the kind of event a party is.
type Theme string

const (
	ThemeAnniversary Theme = "Anniversary"
	ThemeBirthday    Theme = "Birthday"
	ThemeCasual      Theme = "Casual"
	ThemeFormal      Theme = "Formal"
)

// DefaultTheme is used when a party is created without a theme.
const DefaultTheme = ThemeCasual

// Themes lists every valid theme in display order.
var Themes = []Theme{ThemeAnniversary, ThemeBirthday, ThemeCasual, ThemeFormal}

// Valid reports whether t is one of Themes.
func (t Theme) Valid() bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

// Status is a party's lifecycle state. It is always derived, never input.
type Status string

const (
	StatusUpcoming Status = "U"
	StatusOngoing  Status = "O"
	StatusPast     Status = "P"
)

// Statuses lists every status.
var Statuses = []Status{StatusUpcoming, StatusOngoing, StatusPast}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	return s == StatusUpcoming || s == StatusOngoing || s == StatusPast
}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusUpcoming:
		return "Upcoming"
	case StatusOngoing:
		return "Ongoing"
	case StatusPast:
		return "Past"
	}
	return ""
}

// Party represents an event organised by a group of participants.
type Party struct {
	// ID is the unique identifier for the party (UUID format).
	ID string

	Name  string
	Theme Theme

	// Venue is optional.
	Venue *string

	// StartDate is required. Dates are calendar days at midnight UTC.
	StartDate time.Time

	// EndDate defaults to StartDate when nil on save.
	EndDate *time.Time

	Description string

	// TotalCost is the sum of price × quantity over the party's items.
	TotalCost decimal.Decimal

	// TotalContribution is the sum of the participants' contributions.
	TotalContribution decimal.Decimal

	// TotalPurchase is the sum of price × quantity over purchased items.
	TotalPurchase decimal.Decimal

	// Status is recomputed from the dates on every save.
	Status Status

	// HostID references a Participant of this same party.
	HostID *string

	CreatedAt int64
	UpdatedAt int64
}

// Validate checks the fields a client may set. Derived fields are ignored.
func (p *Party) Validate() error {
	if p.Name == "" {
		return invalid("name", "this field is required")
	}
	if err := validateLength("name", p.Name, 50); err != nil {
		return err
	}
	if !p.Theme.Valid() {
		return invalid("theme", "%q is not a valid choice", p.Theme)
	}
	if err := validateOptionalLength("venue", p.Venue, 255); err != nil {
		return err
	}
	if err := validateLength("description", p.Description, 255); err != nil {
		return err
	}
	if p.StartDate.IsZero() {
		return invalid("start_date", "this field is required")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}
