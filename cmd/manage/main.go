// Command manage runs maintenance tasks against the party planner database.
//
// Usage:
//
//	manage createstaff -email admin@example.com -username admin -password secret123
//	manage close-expired
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/mmynk/partyplanner/internal/auth"
	"github.com/mmynk/partyplanner/internal/config"
	"github.com/mmynk/partyplanner/internal/models"
	"github.com/mmynk/partyplanner/internal/service"
	"github.com/mmynk/partyplanner/internal/storage"
	"github.com/mmynk/partyplanner/internal/storage/sqlite"
	"github.com/mmynk/partyplanner/pkg/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "manage: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: manage <createstaff|close-expired> [flags]")
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}

	cfg, err := config.LoadCommon(".env")
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := sqlite.New(cfg.DBPath, sqlite.WithClock(cfg.Clock()))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	switch args[0] {
	case "createstaff":
		return createStaff(ctx, store, args[1:], out)
	case "close-expired":
		svc := service.NewAdminService(store, logger, service.WithAdminClock(cfg.Clock()))
		n, err := svc.CloseExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d parties marked as past\n", n)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// createStaff creates a verified staff user, or promotes an existing one.
func createStaff(ctx context.Context, store storage.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("createstaff", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}

	existing, err := store.GetUserByUsername(ctx, *username)
	switch {
	case err == nil:
		existing.IsStaff = true
		existing.Verified = true
		if err := store.UpdateUser(ctx, existing); err != nil {
			return err
		}
		fmt.Fprintf(out, "user %s promoted to staff\n", existing.Username)
		return nil
	case !storage.IsNotFound(err):
		return err
	}

	authenticator := auth.NewPasswordAuthenticator(store)
	if err := authenticator.ValidateCredential(*password); err != nil {
		return err
	}
	hash, err := authenticator.HashPassword(*password)
	if err != nil {
		return err
	}

	user := models.NewUser(*email, *username, hash)
	user.IsStaff = true
	user.Verified = true
	if err := store.CreateUser(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(out, "staff user %s created\n", user.Username)
	return nil
}
