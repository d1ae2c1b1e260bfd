package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns a context carrying the given identity.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, EmailKey, email)
	if info := requestInfoFrom(ctx); info != nil {
		info.userID = userID
	}
	return ctx
}

// bearerToken extracts the token from an Authorization header of the form
// "Bearer <token>" or "JWT <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || (parts[0] != "Bearer" && parts[0] != "JWT") {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth returns a middleware that validates JWT access tokens and
// rejects unauthenticated requests with 401.
func RequireAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			claims, err := tokens.Validate(tokenString, auth.PurposeAccess)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Email)))
		})
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. GraphQL uses it so that public queries and
// login mutations share one endpoint with "me".
func OptionalAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tokenString, err := bearerToken(r); err == nil {
				// Validate token (ignore errors - optional auth)
				if claims, err := tokens.Validate(tokenString, auth.PurposeAccess); err == nil {
					ctx = WithUser(ctx, claims.UserID, claims.Email)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// ErrNotStaff is returned when an authenticated user lacks the staff flag.
var ErrNotStaff = errors.New("staff access required")

// RequireStaff must run after RequireAuth. It rejects users that are not
// staff with 403.
func RequireStaff(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeError(w, http.StatusUnauthorized, auth.ErrMissingToken)
				return
			}
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken)
				return
			}
			if !user.IsStaff {
				writeError(w, http.StatusForbidden, ErrNotStaff)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
