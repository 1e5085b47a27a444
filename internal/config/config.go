package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider backends
const (
	ProviderIdentityToolkit = "identitytoolkit"
	ProviderEmulator        = "emulator"
)

const (
	defaultEndpoint     = "https://identitytoolkit.googleapis.com/v1"
	minSessionSecretLen = 32
)

// Config holds all configuration for the application
type Config struct {
	// Environment name ("production", "development")
	Env string

	HTTP HTTPConfig

	// Hosted authentication provider
	Auth AuthConfig

	// Browser session cookie
	Session SessionConfig

	// Database Configuration
	Database DatabaseConfig

	// Local storage mirror maintenance
	Mirror MirrorConfig

	// View settings
	Display DisplayConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds listener configuration
type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

// AuthConfig selects and configures the auth provider
type AuthConfig struct {
	Provider       string // identitytoolkit, emulator
	APIKey         string
	Endpoint       string
	EmulatorSecret string
}

// SessionConfig holds cookie session configuration
type SessionConfig struct {
	Secret string
	Secure bool
	MaxAge time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// MirrorConfig controls the janitor for mirrored storage rows
type MirrorConfig struct {
	Retention time.Duration
	Sweep     string // cron spec
}

// DisplayConfig holds rendering preferences
type DisplayConfig struct {
	Timezone string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	secure, err := parseBool("SESSION_SECURE", false)
	if err != nil {
		return nil, err
	}

	maxAge, err := parseDuration("SESSION_MAX_AGE", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	retention, err := parseDuration("MIRROR_RETENTION", 720*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Env: getEnv("APP_ENV", "production"),
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Auth: AuthConfig{
			Provider:       strings.ToLower(getEnv("AUTH_PROVIDER", ProviderIdentityToolkit)),
			APIKey:         os.Getenv("AUTH_API_KEY"),
			Endpoint:       strings.TrimRight(getEnv("AUTH_ENDPOINT", defaultEndpoint), "/"),
			EmulatorSecret: os.Getenv("EMULATOR_SECRET"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Secure: secure,
			MaxAge: maxAge,
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "authdash.sqlite"),
		},
		Mirror: MirrorConfig{
			Retention: retention,
			Sweep:     getEnv("MIRROR_SWEEP", "@hourly"),
		},
		Display: DisplayConfig{
			Timezone: getEnv("DISPLAY_TIMEZONE", "UTC"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// Validate checks the settings the web server cannot run without
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.Provider {
	case ProviderIdentityToolkit:
		if c.Auth.APIKey == "" {
			errs = append(errs, errors.New("AUTH_API_KEY is required for the identitytoolkit provider"))
		}
	case ProviderEmulator:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.Auth.Provider))
	}

	if len(c.Session.Secret) < minSessionSecretLen && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen))
	}

	if c.Mirror.Retention <= 0 {
		errs = append(errs, errors.New("MIRROR_RETENTION must be positive"))
	}

	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
