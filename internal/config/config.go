// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Common holds the settings shared by the server and the manage tool.
type Common struct {
	DBPath string `env:"DB_PATH" envDefault:"./data/partyplanner.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// TimeZone decides which calendar day "today" is for party status.
	TimeZone string `env:"TIME_ZONE" envDefault:"UTC"`
}

// Config holds every server setting.
type Config struct {
	Common

	Port int `env:"PORT" envDefault:"8080"`

	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"5m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ActivationTokenTTL time.Duration `env:"ACTIVATION_TOKEN_TTL" envDefault:"72h"`

	// AllowLoginNotVerified lets users log in before verifying their account.
	AllowLoginNotVerified bool `env:"ALLOW_LOGIN_NOT_VERIFIED" envDefault:"true"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	GraphiQL           bool     `env:"GRAPHIQL" envDefault:"true"`
}

// Load reads the given .env files, when present, then parses the
// environment. Variables already set take precedence over file values.
func Load(files ...string) (*Config, error) {
	cfg := &Config{}
	if err := load(cfg, files); err != nil {
		return nil, err
	}
	if err := cfg.Common.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCommon is Load for tools that do not serve HTTP.
func LoadCommon(files ...string) (*Common, error) {
	cfg := &Common{}
	if err := load(cfg, files); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(target any, files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Common) validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want text or json", c.LogFormat)
	}
}

// Location resolves TimeZone.
func (c *Common) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Clock returns the current time in the configured zone.
func (c *Common) Clock() func() time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}
