package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/middleware"
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/service"
	"github.com/mmynk/partyplanner/internal/storage/sqlite"
)

type testServer struct {
	url   string
	staff string
	guest string
	store *sqlite.SQLiteStore
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "admin-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	store, err := sqlite.New(filepath.Join(tempDir, "test.db"), sqlite.WithClock(now))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewJWTManager(auth.TokenConfig{Secret: "s", AccessTTL: time.Hour})
	svc := service.NewAdminService(store, logger, service.WithAdminClock(now))

	handler := middleware.RequireAuth(tokens)(middleware.RequireStaff(store)(NewHandler(svc, logger)))
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.RemoveAll(tempDir)
	})

	ctx := context.Background()
	staff := models.NewUser("staff@example.com", "staff", "x")
	staff.IsStaff = true
	guest := models.NewUser("guest@example.com", "guest", "x")
	for _, u := range []*models.User{staff, guest} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	staffToken, _ := tokens.Generate(staff, auth.PurposeAccess)
	guestToken, _ := tokens.Generate(guest, auth.PurposeAccess)

	return &testServer{url: server.URL, staff: staffToken, guest: guestToken, store: store}
}

func (s *testServer) call(t *testing.T, token, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.url+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestAccessControl(t *testing.T) {
	s := setupServer(t)

	if code := s.call(t, "", http.MethodGet, "/admin/parties", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", code)
	}
	if code := s.call(t, s.guest, http.MethodGet, "/admin/parties", nil, nil); code != http.StatusForbidden {
		t.Errorf("guest status = %d, want 403", code)
	}
	if code := s.call(t, s.staff, http.MethodGet, "/admin/parties", nil, nil); code != http.StatusOK {
		t.Errorf("staff status = %d, want 200", code)
	}
}

func TestPartyLifecycle(t *testing.T) {
	s := setupServer(t)

	var created partyView
	code := s.call(t, s.staff, http.MethodPost, "/admin/parties", map[string]any{
		"name":       "Launch",
		"start_date": "2024-01-10",
		"status":     "P",
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", code)
	}

	code = s.call(t, s.staff, http.MethodPost, "/admin/parties", map[string]any{
		"name":       "Launch",
		"start_date": "2024-01-10",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", code)
	}
	if created.Status != "Ongoing" || created.EndDate != "2024-01-10" || created.Theme != "Casual" {
		t.Errorf("unexpected party %+v", created)
	}

	var bad errorBody
	code = s.call(t, s.staff, http.MethodPost, "/admin/parties", map[string]any{"name": "", "start_date": "2024-01-10"}, &bad)
	if code != http.StatusBadRequest || bad.Field != "name" {
		t.Errorf("validation = %d %+v", code, bad)
	}

	var patched partyView
	code = s.call(t, s.staff, http.MethodPatch, "/admin/parties/"+created.ID, map[string]any{"theme": "Formal"}, &patched)
	if code != http.StatusOK || patched.Theme != "Formal" {
		t.Errorf("patch = %d %+v", code, patched)
	}

	var participant participantView
	guest, _ := s.store.GetUserByUsername(context.Background(), "guest")
	code = s.call(t, s.staff, http.MethodPost, "/admin/participants", map[string]any{
		"user": guest.ID, "party": created.ID, "contribution": "5.00",
	}, &participant)
	if code != http.StatusCreated || participant.User == nil || participant.User.Username != "guest" {
		t.Fatalf("create participant = %d %+v", code, participant)
	}

	var conflict errorBody
	code = s.call(t, s.staff, http.MethodDelete, "/admin/parties/"+created.ID, nil, &conflict)
	if code != http.StatusConflict || len(conflict.Dependents) != 1 {
		t.Errorf("protected delete = %d %+v", code, conflict)
	}

	var marked struct {
		Updated int    `json:"updated"`
		Message string `json:"message"`
	}
	code = s.call(t, s.staff, http.MethodPost, "/admin/parties/mark-past", map[string]any{"ids": []string{created.ID, "missing"}}, &marked)
	if code != http.StatusOK || marked.Updated != 1 || marked.Message != "1 party was successfully marked as past." {
		t.Errorf("mark past = %d %+v", code, marked)
	}

	var list pageView[partyView]
	s.call(t, s.staff, http.MethodGet, "/admin/parties?status=past", nil, &list)
	if list.Count != 1 || list.Results[0].Status != "Past" {
		t.Errorf("status filter = %+v", list)
	}

	if code := s.call(t, s.staff, http.MethodGet, "/admin/parties/missing", nil, nil); code != http.StatusNotFound {
		t.Errorf("missing party status = %d, want 404", code)
	}
}

func TestItemsAndUsers(t *testing.T) {
	s := setupServer(t)

	var party partyView
	s.call(t, s.staff, http.MethodPost, "/admin/parties", map[string]any{"name": "Games", "start_date": "2024-02-01"}, &party)

	for _, body := range []map[string]any{
		{"party": party.ID, "name": "Pizza", "category": "pizza", "quantity": 3, "price": "9.99"},
		{"party": party.ID, "name": "Cards", "category": "card", "quantity": 1, "price": "4.00"},
	} {
		if code := s.call(t, s.staff, http.MethodPost, "/admin/items", body, nil); code != http.StatusCreated {
			t.Fatalf("create item status = %d", code)
		}
	}

	var items pageView[itemView]
	s.call(t, s.staff, http.MethodGet, "/admin/items?sort=-total_cost", nil, &items)
	if items.Count != 2 || items.Results[0].Name != "Pizza" || items.Results[0].TotalCost != "29.97" {
		t.Errorf("sorted items = %+v", items)
	}

	var patched itemView
	code := s.call(t, s.staff, http.MethodPatch, "/admin/items/"+items.Results[1].ID, map[string]any{"quantity": 0}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("zero quantity status = %d, want 400", code)
	}
	s.call(t, s.staff, http.MethodPatch, "/admin/items/"+items.Results[1].ID, map[string]any{"price": "1.5"}, &patched)
	if patched.Price != "1.50" || !patched.ForAll {
		t.Errorf("patched item = %+v", patched)
	}

	var users pageView[userView]
	s.call(t, s.staff, http.MethodGet, "/admin/users", nil, &users)
	if users.Count != 2 {
		t.Errorf("users count = %d, want 2", users.Count)
	}

	guest, _ := s.store.GetUserByUsername(context.Background(), "guest")
	var promoted userView
	s.call(t, s.staff, http.MethodPatch, "/admin/users/"+guest.ID, map[string]any{"is_staff": true}, &promoted)
	if !promoted.IsStaff {
		t.Error("expected guest to be promoted")
	}
	if code := s.call(t, s.staff, http.MethodDelete, "/admin/users/"+guest.ID, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete user status = %d, want 204", code)
	}
}
