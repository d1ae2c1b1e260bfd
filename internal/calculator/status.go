// Package calculator holds the derived-field rules for parties and items:
// lifecycle status, end-date defaulting, totals and per-participant shares.
package calculator

import (
	"time"

	"github.com/mmynk/partyplanner/internal/models"
)

// DateOf truncates t to its calendar day, expressed as midnight UTC.
// The day is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DeriveStatus compares today against the inclusive range [start, end].
func DeriveStatus(today, start, end time.Time) models.Status {
	today, start, end = DateOf(today), DateOf(start), DateOf(end)
	switch {
	case today.Before(start):
		return models.StatusUpcoming
	case today.After(end):
		return models.StatusPast
	default:
		return models.StatusOngoing
	}
}

// ApplyPartyDates defaults the end date to the start date and recomputes the
// status for the given day. Any status already on the party is overwritten.
func ApplyPartyDates(p *models.Party, today time.Time) {
	p.StartDate = DateOf(p.StartDate)
	if p.EndDate == nil {
		end := p.StartDate
		p.EndDate = &end
	} else {
		end := DateOf(*p.EndDate)
		p.EndDate = &end
	}
	p.Status = DeriveStatus(today, p.StartDate, *p.EndDate)
}

// IsExpired reports whether a party has ended before today but its stored
// status still says otherwise. Such parties are candidates for "mark past".
func IsExpired(p *models.Party, today time.Time) bool {
	if p.EndDate == nil || p.Status == models.StatusPast {
		return false
	}
	return DateOf(*p.EndDate).Before(DateOf(today))
}
