package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validItem() *Item {
	return &Item{
		PartyID:  "party-1",
		Name:     "Lager",
		Category: CategoryBeer,
		Quantity: 3,
		Price:    decimal.RequireFromString("10.00"),
		ForAll:   true,
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(i *Item)
		wantField string
	}{
		{"valid item", func(i *Item) {}, ""},
		{"zero quantity rejected", func(i *Item) { i.Quantity = 0 }, "quantity"},
		{"negative quantity rejected", func(i *Item) { i.Quantity = -2 }, "quantity"},
		{"quantity above small int rejected", func(i *Item) { i.Quantity = MaxSmallInt + 1 }, "quantity"},
		{"negative price rejected", func(i *Item) { i.Price = decimal.RequireFromString("-0.01") }, "price"},
		{"three decimals rejected", func(i *Item) { i.Price = decimal.RequireFromString("1.005") }, "price"},
		{"price above column max rejected", func(i *Item) { i.Price = decimal.RequireFromString("100000") }, "price"},
		{"unknown category rejected", func(i *Item) { i.Category = "snacks" }, "category"},
		{"missing name rejected", func(i *Item) { i.Name = "" }, "name"},
		{"negative priority rejected", func(i *Item) { p := -1; i.Priority = &p }, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(item)
			err := item.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := AsValidation(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tt.wantField)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestItemTotalCost(t *testing.T) {
	item := validItem()
	if got := item.TotalCost(); !got.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("TotalCost = %s, want 30.00", got)
	}
}

func TestPartyValidate(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)

	tests := []struct {
		name      string
		party     Party
		wantField string
	}{
		{"valid", Party{Name: "Bash", Theme: ThemeBirthday, StartDate: start}, ""},
		{"missing name", Party{Theme: ThemeCasual, StartDate: start}, "name"},
		{"bad theme", Party{Name: "Bash", Theme: "Rave", StartDate: start}, "theme"},
		{"missing start", Party{Name: "Bash", Theme: ThemeCasual}, "start_date"},
		{"end before start", Party{Name: "Bash", Theme: ThemeCasual, StartDate: start, EndDate: &before}, "end_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.party.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := AsValidation(err)
			if !ok || ve.Field != tt.wantField {
				t.Errorf("got %v, want error on %q", err, tt.wantField)
			}
		})
	}
}

func TestUserValidate(t *testing.T) {
	u := NewUser("a@b.com", "a", "hash")
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u.Email = "not-an-email"
	if ve, ok := AsValidation(u.Validate()); !ok || ve.Field != "email" {
		t.Errorf("expected email validation error, got %v", ve)
	}
}

func TestParticipantDisplayName(t *testing.T) {
	p := &Participant{User: &User{FirstName: "Ramona", LastName: "Flowers"}}
	if got := p.DisplayName(); got != "Ramona Flowers" {
		t.Errorf("DisplayName = %q, want %q", got, "Ramona Flowers")
	}

	p.User = &User{FirstName: " Scott", LastName: ""}
	if got := p.DisplayName(); got != " Scott " {
		t.Errorf("DisplayName = %q, want no normalisation", got)
	}
}

func TestParticipantValidate(t *testing.T) {
	p := &Participant{UserID: "u", PartyID: "p", Contribution: decimal.RequireFromString("-1")}
	if ve, ok := AsValidation(p.Validate()); !ok || ve.Field != "contribution" {
		t.Errorf("expected contribution error, got %v", ve)
	}
}

func TestEnums(t *testing.T) {
	if len(Categories) != 14 {
		t.Errorf("expected 14 categories, got %d", len(Categories))
	}
	for _, c := range Categories {
		if c.Label() == "" {
			t.Errorf("category %q has no label", c)
		}
	}
	if StatusOngoing.Label() != "Ongoing" {
		t.Errorf("unexpected label %q", StatusOngoing.Label())
	}
	if Theme("Rave").Valid() {
		t.Error("unexpected valid theme")
	}
}
