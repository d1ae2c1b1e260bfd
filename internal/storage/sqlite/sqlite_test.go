package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/storage"
)

// newTestStore opens a store in a temp directory with the clock fixed at the
// given day.
func newTestStore(t *testing.T, today string) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "partyplanner-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	now := mustDate(t, today).Add(12 * time.Hour)
	store, err := New(filepath.Join(tempDir, "test.db"), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createUser(t *testing.T, s *SQLiteStore, username, first, last string) *models.User {
	t.Helper()
	u := models.NewUser(username+"@example.com", username, "hash")
	u.FirstName = first
	u.LastName = last
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func createParty(t *testing.T, s *SQLiteStore, name, start string) *models.Party {
	t.Helper()
	p := &models.Party{Name: name, Theme: models.ThemeBirthday, StartDate: mustDate(t, start)}
	if err := s.CreateParty(context.Background(), p); err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}
	return p
}

func TestPartyStatusDerivation(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	t.Run("missing end date on the start day is ongoing", func(t *testing.T) {
		party := &models.Party{
			Name:      "Launch",
			StartDate: mustDate(t, "2024-01-10"),
			Status:    models.StatusPast, // ignored
		}
		if err := store.CreateParty(ctx, party); err != nil {
			t.Fatalf("CreateParty failed: %v", err)
		}

		got, err := store.GetParty(ctx, party.ID)
		if err != nil {
			t.Fatalf("GetParty failed: %v", err)
		}
		if got.Status != models.StatusOngoing {
			t.Errorf("Status = %s, want Ongoing", got.Status)
		}
		if models.FormatDate(*got.EndDate) != "2024-01-10" {
			t.Errorf("EndDate = %s, want 2024-01-10", models.FormatDate(*got.EndDate))
		}
		if got.Theme != models.ThemeCasual {
			t.Errorf("Theme = %s, want default Casual", got.Theme)
		}
		if !got.TotalCost.IsZero() {
			t.Errorf("TotalCost = %s, want 0", got.TotalCost)
		}
	})

	t.Run("future party is upcoming and past party is past", func(t *testing.T) {
		future := createParty(t, store, "Future", "2024-02-01")
		if future.Status != models.StatusUpcoming {
			t.Errorf("future Status = %s, want Upcoming", future.Status)
		}
		past := createParty(t, store, "Old", "2023-12-01")
		if past.Status != models.StatusPast {
			t.Errorf("past Status = %s, want Past", past.Status)
		}
	})

	t.Run("update recomputes status", func(t *testing.T) {
		party := createParty(t, store, "Moving", "2024-02-01")
		party.StartDate = mustDate(t, "2024-01-05")
		end := mustDate(t, "2024-01-12")
		party.EndDate = &end
		party.Status = models.StatusUpcoming
		if err := store.UpdateParty(ctx, party); err != nil {
			t.Fatalf("UpdateParty failed: %v", err)
		}
		got, _ := store.GetParty(ctx, party.ID)
		if got.Status != models.StatusOngoing {
			t.Errorf("Status = %s, want Ongoing", got.Status)
		}
	})

	t.Run("invalid theme is rejected", func(t *testing.T) {
		err := store.CreateParty(ctx, &models.Party{Name: "X", Theme: "Rave", StartDate: mustDate(t, "2024-01-10")})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestFindPartyByName(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	for _, name := range []string{"Zed's Birthday", "Office Party", "Birthday Bash", "bir lowercase", "Anna Bir"} {
		createParty(t, store, name, "2024-01-20")
	}

	got, err := store.ListParties(ctx, storage.PartyFilter{NameContains: "Bir"})
	if err != nil {
		t.Fatalf("ListParties failed: %v", err)
	}

	want := []string{"Anna Bir", "Birthday Bash", "Zed's Birthday"}
	if len(got) != len(want) {
		t.Fatalf("got %d parties, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("party %d = %q, want %q", i, p.Name, want[i])
		}
	}

	t.Run("no match returns empty slice", func(t *testing.T) {
		got, err := store.ListParties(ctx, storage.PartyFilter{NameContains: "Nope"})
		if err != nil {
			t.Fatalf("ListParties failed: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})

	t.Run("prefix search is case-insensitive", func(t *testing.T) {
		got, err := store.ListParties(ctx, storage.PartyFilter{NamePrefix: "bir"})
		if err != nil {
			t.Fatalf("ListParties failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d parties, want 2", len(got))
		}
	})
}

func TestMarkPartiesPast(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	a := createParty(t, store, "A", "2024-03-01")
	b := createParty(t, store, "B", "2024-01-10")
	c := createParty(t, store, "C", "2024-05-01")

	n, err := store.MarkPartiesPast(ctx, []string{a.ID, b.ID, a.ID})
	if err != nil {
		t.Fatalf("MarkPartiesPast failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	for _, id := range []string{a.ID, b.ID} {
		p, _ := store.GetParty(ctx, id)
		if p.Status != models.StatusPast {
			t.Errorf("party %s Status = %s, want Past", p.Name, p.Status)
		}
	}
	untouched, _ := store.GetParty(ctx, c.ID)
	if untouched.Status != models.StatusUpcoming {
		t.Errorf("party C Status = %s, want Upcoming", untouched.Status)
	}

	if n, _ := store.MarkPartiesPast(ctx, []string{"missing"}); n != 0 {
		t.Errorf("unknown id count = %d, want 0", n)
	}
}

func TestExpiredFilter(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	stale := createParty(t, store, "Stale", "2024-01-10")

	// Move the clock forward without saving: the stored status is now stale.
	later := mustDate(t, "2024-01-20")
	store.now = func() time.Time { return later }

	expired, err := store.ListParties(ctx, storage.PartyFilter{ExpiredBefore: &later})
	if err != nil {
		t.Fatalf("ListParties failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != stale.ID {
		t.Fatalf("expected the stale party, got %v", expired)
	}

	if _, err := store.MarkPartiesPast(ctx, []string{stale.ID}); err != nil {
		t.Fatalf("MarkPartiesPast failed: %v", err)
	}
	expired, _ = store.ListParties(ctx, storage.PartyFilter{ExpiredBefore: &later})
	if len(expired) != 0 {
		t.Errorf("expected no expired parties after mark past, got %d", len(expired))
	}
}

func TestProtectedDeletes(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	t.Run("party with participant cannot be deleted", func(t *testing.T) {
		party := createParty(t, store, "Guarded", "2024-01-15")
		user := createUser(t, store, "guard", "Gina", "Guard")
		if err := store.CreateParticipant(ctx, &models.Participant{UserID: user.ID, PartyID: party.ID}); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		err := store.DeleteParty(ctx, party.ID)
		if !errors.Is(err, storage.ErrReferentialIntegrity) {
			t.Fatalf("expected referential integrity error, got %v", err)
		}

		err = store.DeleteUser(ctx, user.ID)
		if !errors.Is(err, storage.ErrReferentialIntegrity) {
			t.Errorf("expected referential integrity error deleting user, got %v", err)
		}
	})

	t.Run("party with item cannot be deleted", func(t *testing.T) {
		party := createParty(t, store, "Stocked", "2024-01-15")
		item := &models.Item{PartyID: party.ID, Name: "Cola", Category: models.CategorySoftDrink, Quantity: 1, Price: dec("2.00")}
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}

		err := store.DeleteParty(ctx, party.ID)
		var rie *storage.ReferentialIntegrityError
		if !errors.As(err, &rie) {
			t.Fatalf("expected ReferentialIntegrityError, got %v", err)
		}
		if len(rie.Dependents) != 1 || rie.Dependents[0] != "1 item" {
			t.Errorf("Dependents = %v, want [1 item]", rie.Dependents)
		}

		if err := store.DeleteItem(ctx, item.ID); err != nil {
			t.Fatalf("DeleteItem failed: %v", err)
		}
		if err := store.DeleteParty(ctx, party.ID); err != nil {
			t.Fatalf("DeleteParty after removing item failed: %v", err)
		}
	})

	t.Run("empty party can be deleted", func(t *testing.T) {
		party := createParty(t, store, "Empty", "2024-01-15")
		if err := store.DeleteParty(ctx, party.ID); err != nil {
			t.Fatalf("DeleteParty failed: %v", err)
		}
		if _, err := store.GetParty(ctx, party.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})

	t.Run("host and consumer participants cannot be deleted", func(t *testing.T) {
		party := createParty(t, store, "Hosted", "2024-01-15")
		user := createUser(t, store, "host", "Hal", "Host")
		host := &models.Participant{UserID: user.ID, PartyID: party.ID}
		if err := store.CreateParticipant(ctx, host); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}
		party.HostID = &host.ID
		if err := store.UpdateParty(ctx, party); err != nil {
			t.Fatalf("UpdateParty failed: %v", err)
		}

		if err := store.DeleteParticipant(ctx, host.ID); !errors.Is(err, storage.ErrReferentialIntegrity) {
			t.Errorf("expected referential integrity error, got %v", err)
		}
	})
}

func TestParticipants(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	party := createParty(t, store, "Dinner", "2024-01-12")
	other := createParty(t, store, "Lunch", "2024-01-12")
	ramona := createUser(t, store, "ramona", "Ramona", "Flowers")
	scott := createUser(t, store, "scott", "Scott", "Pilgrim")

	for _, p := range []*models.Participant{
		{UserID: ramona.ID, PartyID: party.ID, Contribution: dec("20.00")},
		{UserID: scott.ID, PartyID: party.ID, Contribution: dec("15.50")},
		{UserID: scott.ID, PartyID: other.ID},
	} {
		if err := store.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}
	}

	t.Run("listing joins users", func(t *testing.T) {
		got, err := store.ListParticipants(ctx, storage.ParticipantFilter{PartyID: party.ID})
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d participants, want 2", len(got))
		}
		if got[0].DisplayName() != "Ramona Flowers" || got[1].DisplayName() != "Scott Pilgrim" {
			t.Errorf("unexpected display names %q, %q", got[0].DisplayName(), got[1].DisplayName())
		}
	})

	t.Run("contributions roll up into party totals", func(t *testing.T) {
		got, _ := store.GetParty(ctx, party.ID)
		if !got.TotalContribution.Equal(dec("35.50")) {
			t.Errorf("TotalContribution = %s, want 35.50", got.TotalContribution)
		}
	})

	t.Run("duplicate membership is rejected", func(t *testing.T) {
		err := store.CreateParticipant(ctx, &models.Participant{UserID: ramona.ID, PartyID: party.ID})
		ve, ok := models.AsValidation(err)
		if !ok || ve.Field != "user" {
			t.Errorf("expected user validation error, got %v", err)
		}
	})

	t.Run("host must belong to the party", func(t *testing.T) {
		outsiders, _ := store.ListParticipants(ctx, storage.ParticipantFilter{PartyID: other.ID})
		party.HostID = &outsiders[0].ID
		err := store.UpdateParty(ctx, party)
		ve, ok := models.AsValidation(err)
		if !ok || ve.Field != "host" {
			t.Errorf("expected host validation error, got %v", err)
		}
		party.HostID = nil
	})
}

func TestItems(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	party := createParty(t, store, "Game Night", "2024-01-12")
	user := createUser(t, store, "kim", "Kim", "Pine")
	kim := &models.Participant{UserID: user.ID, PartyID: party.ID}
	if err := store.CreateParticipant(ctx, kim); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	beer := &models.Item{
		PartyID: party.ID, Name: "Beer", Category: models.CategoryBeer,
		Quantity: 3, Price: dec("10.00"), Purchased: true, ConsumerIDs: []string{kim.ID},
	}
	apples := &models.Item{
		PartyID: party.ID, Name: "Apples", Category: models.CategoryFruitVegetable,
		Quantity: 2, Price: dec("1.25"), ForAll: true,
	}
	for _, item := range []*models.Item{beer, apples} {
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
	}

	t.Run("items are ordered by name with consumers", func(t *testing.T) {
		got, err := store.ListItems(ctx, storage.ItemFilter{PartyID: party.ID})
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if len(got) != 2 || got[0].Name != "Apples" || got[1].Name != "Beer" {
			t.Fatalf("unexpected items %v", got)
		}
		if len(got[1].Consumers) != 1 || got[1].Consumers[0].DisplayName() != "Kim Pine" {
			t.Errorf("unexpected consumers %v", got[1].Consumers)
		}
		if !got[1].TotalCost().Equal(dec("30.00")) {
			t.Errorf("TotalCost = %s, want 30.00", got[1].TotalCost())
		}
	})

	t.Run("totals are refreshed", func(t *testing.T) {
		got, _ := store.GetParty(ctx, party.ID)
		if !got.TotalCost.Equal(dec("32.50")) {
			t.Errorf("TotalCost = %s, want 32.50", got.TotalCost)
		}
		if !got.TotalPurchase.Equal(dec("30.00")) {
			t.Errorf("TotalPurchase = %s, want 30.00", got.TotalPurchase)
		}
	})

	t.Run("sort by total cost", func(t *testing.T) {
		got, err := store.ListItems(ctx, storage.ItemFilter{Sort: storage.ItemSortTotalCostDesc})
		if err != nil {
			t.Fatalf("ListItems failed: %v", err)
		}
		if got[0].Name != "Beer" {
			t.Errorf("first item = %q, want Beer", got[0].Name)
		}
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		err := store.CreateItem(ctx, &models.Item{PartyID: party.ID, Name: "Cake", Category: models.CategoryCake, Price: dec("5")})
		ve, ok := models.AsValidation(err)
		if !ok || ve.Field != "quantity" {
			t.Errorf("expected quantity validation error, got %v", err)
		}
	})

	t.Run("consumer must belong to the party", func(t *testing.T) {
		other := createParty(t, store, "Elsewhere", "2024-01-12")
		err := store.CreateItem(ctx, &models.Item{
			PartyID: other.ID, Name: "Wine", Category: models.CategoryWine,
			Quantity: 1, Price: dec("9"), ConsumerIDs: []string{kim.ID},
		})
		ve, ok := models.AsValidation(err)
		if !ok || ve.Field != "consumers" {
			t.Errorf("expected consumers validation error, got %v", err)
		}
	})

	t.Run("consuming participant cannot be deleted", func(t *testing.T) {
		if err := store.DeleteParticipant(ctx, kim.ID); !errors.Is(err, storage.ErrReferentialIntegrity) {
			t.Errorf("expected referential integrity error, got %v", err)
		}
	})
}

func TestUsers(t *testing.T) {
	store := newTestStore(t, "2024-01-10")
	ctx := context.Background()

	createUser(t, store, "wallace", "Wallace", "Wells")

	t.Run("duplicate email is a field error", func(t *testing.T) {
		u := models.NewUser("wallace@example.com", "wallace2", "hash")
		ve, ok := models.AsValidation(store.CreateUser(ctx, u))
		if !ok || ve.Field != "email" {
			t.Errorf("expected email validation error, got %v", ve)
		}
	})

	t.Run("lookup by username and email", func(t *testing.T) {
		if _, err := store.GetUserByUsername(ctx, "wallace"); err != nil {
			t.Errorf("GetUserByUsername failed: %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "wallace@example.com"); err != nil {
			t.Errorf("GetUserByEmail failed: %v", err)
		}
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("name prefix search", func(t *testing.T) {
		got, err := store.ListUsers(ctx, storage.UserFilter{NamePrefix: "wel"})
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d users, want 1", len(got))
		}
	})
}
