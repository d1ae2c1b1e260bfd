package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/models"
)

func testTokens() *auth.JWTManager {
	return auth.NewJWTManager(auth.TokenConfig{
		Secret:        "test-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		ActivationTTL: time.Hour,
	})
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, GetUserID(r.Context()))
	})
}

func TestRequireAuth(t *testing.T) {
	tokens := testTokens()
	user := &models.User{ID: "user-1", Email: "a@example.com"}
	access, _ := tokens.Generate(user, auth.PurposeAccess)
	refresh, _ := tokens.Generate(user, auth.PurposeRefresh)

	handler := RequireAuth(tokens)(echoUser())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"bearer", "Bearer " + access, http.StatusOK, "user-1"},
		{"jwt prefix", "JWT " + access, http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"bad scheme", "Basic " + access, http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := testTokens()
	handler := OptionalAuth(tokens)(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "" {
		t.Errorf("expected anonymous pass-through, got %d %q", rec.Code, rec.Body.String())
	}
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func TestRequireStaff(t *testing.T) {
	tokens := testTokens()
	users := fakeUsers{
		"staff":  {ID: "staff", IsStaff: true},
		"member": {ID: "member"},
	}
	handler := RequireAuth(tokens)(RequireStaff(users)(echoUser()))

	for id, want := range map[string]int{"staff": http.StatusOK, "member": http.StatusForbidden, "ghost": http.StatusUnauthorized} {
		t.Run(id, func(t *testing.T) {
			token, _ := tokens.Generate(&models.User{ID: id}, auth.PurposeAccess)
			req := httptest.NewRequest(http.MethodGet, "/admin/parties", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != want {
				t.Errorf("status = %d, want %d", rec.Code, want)
			}
		})
	}
}

func TestMetricsAndLogging(t *testing.T) {
	metrics := NewMetrics()
	handler := Logging(metrics.Instrument("teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()
	want := `partyplanner_http_requests_total{code="418",method="GET",route="teapot"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics output missing %q", want)
	}
}
