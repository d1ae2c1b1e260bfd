package calculator

import (
	"testing"
	"time"

	"github.com/mmynk/partyplanner/internal/models"
)

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		today string
		start string
		end   string
		want  models.Status
	}{
		{"before start", "2024-01-09", "2024-01-10", "2024-01-12", models.StatusUpcoming},
		{"on start", "2024-01-10", "2024-01-10", "2024-01-12", models.StatusOngoing},
		{"inside range", "2024-01-11", "2024-01-10", "2024-01-12", models.StatusOngoing},
		{"on end", "2024-01-12", "2024-01-10", "2024-01-12", models.StatusOngoing},
		{"after end", "2024-01-13", "2024-01-10", "2024-01-12", models.StatusPast},
		{"single day party on the day", "2024-01-10", "2024-01-10", "2024-01-10", models.StatusOngoing},
		{"single day party next day", "2024-01-11", "2024-01-10", "2024-01-10", models.StatusPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(day(tt.today), day(tt.start), day(tt.end))
			if got != tt.want {
				t.Errorf("DeriveStatus(%s, %s, %s) = %s, want %s", tt.today, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestDeriveStatus_IgnoresTimeOfDay(t *testing.T) {
	// 23:30 on the end date is still the end date.
	today := time.Date(2024, 1, 12, 23, 30, 0, 0, time.UTC)
	if got := DeriveStatus(today, day("2024-01-10"), day("2024-01-12")); got != models.StatusOngoing {
		t.Errorf("got %s, want Ongoing", got)
	}

	// The calendar day is taken in the clock's own zone.
	loc := time.FixedZone("UTC+10", 10*60*60)
	today = time.Date(2024, 1, 13, 1, 0, 0, 0, loc) // still Jan 12 in UTC
	if got := DeriveStatus(today, day("2024-01-10"), day("2024-01-12")); got != models.StatusPast {
		t.Errorf("got %s, want Past", got)
	}
}

func TestApplyPartyDates(t *testing.T) {
	t.Run("missing end date defaults to start date", func(t *testing.T) {
		p := &models.Party{Name: "New Year", StartDate: day("2024-01-10")}
		ApplyPartyDates(p, day("2024-01-10"))

		if p.EndDate == nil || !p.EndDate.Equal(day("2024-01-10")) {
			t.Fatalf("EndDate = %v, want 2024-01-10", p.EndDate)
		}
		if p.Status != models.StatusOngoing {
			t.Errorf("Status = %s, want Ongoing", p.Status)
		}
	})

	t.Run("client supplied status is overwritten", func(t *testing.T) {
		end := day("2024-03-02")
		p := &models.Party{StartDate: day("2024-03-01"), EndDate: &end, Status: models.StatusPast}
		ApplyPartyDates(p, day("2024-01-01"))

		if p.Status != models.StatusUpcoming {
			t.Errorf("Status = %s, want Upcoming", p.Status)
		}
	})
}

func TestIsExpired(t *testing.T) {
	end := day("2024-01-10")
	p := &models.Party{StartDate: end, EndDate: &end, Status: models.StatusOngoing}

	if !IsExpired(p, day("2024-01-11")) {
		t.Error("expected stale ongoing party to be expired")
	}
	if IsExpired(p, day("2024-01-10")) {
		t.Error("party ending today is not expired")
	}

	p.Status = models.StatusPast
	if IsExpired(p, day("2024-02-01")) {
		t.Error("party already marked past is not expired")
	}
}
