package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/partyplanner/internal/admin"
	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/config"
	"github.com/mmynk/partyplanner/internal/gql"
	"github.com/mmynk/partyplanner/internal/middleware"
	"github.com/mmynk/partyplanner/internal/service"
	"github.com/mmynk/partyplanner/internal/storage/sqlite"
	"github.com/mmynk/partyplanner/pkg/logging"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	clock := cfg.Clock()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath, sqlite.WithClock(clock))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath, "time_zone", cfg.TimeZone)

	tokens := auth.NewJWTManager(auth.TokenConfig{
		Secret:        cfg.JWTSecret,
		AccessTTL:     cfg.TokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		ActivationTTL: cfg.ActivationTokenTTL,
	})
	provider := auth.NewProvider(auth.ProviderConfig{
		Authenticator:         auth.NewPasswordAuthenticator(store),
		Users:                 store,
		Tokens:                tokens,
		AllowLoginNotVerified: cfg.AllowLoginNotVerified,
	})

	queries := service.NewQueryService(store, logger)
	authSvc := service.NewAuthService(provider, logger)
	adminSvc := service.NewAdminService(store, logger, service.WithAdminClock(clock))

	schema, err := gql.NewSchema(queries, authSvc)
	if err != nil {
		return fmt.Errorf("failed to build GraphQL schema: %w", err)
	}

	metrics := middleware.NewMetrics()
	mux := http.NewServeMux()

	mux.Handle("/graphql", metrics.Instrument("graphql",
		middleware.OptionalAuth(tokens)(gql.NewHandler(schema, cfg.GraphiQL))))
	mux.Handle("/admin/", metrics.Instrument("admin",
		middleware.RequireAuth(tokens)(middleware.RequireStaff(store)(admin.NewHandler(adminSvc, logger)))))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// Add logging and CORS middleware
	handler := middleware.Logging(corsHandler.Handler(mux))

	// Wrap with h2c for HTTP/2 without TLS
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s/graphql", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
