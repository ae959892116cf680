package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// Supported datastore drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	Issuer         string // Issuer claim for tokens (default: gatehouse-auth)
	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database file (default: ./auth.db)
	DatabaseURL    string // Postgres DSN, required for the postgres driver
	PepperFile     string // File holding the password pepper (default: ./pepper)
	SeedFile       string // Optional: YAML provisioning file applied at start

	// Secrets. Outside dev all of TokenSecret and TransportSecret are
	// required; in dev missing ones are generated at start.
	TokenSecret     string
	RefreshSecret   string // Optional: defaults to TokenSecret
	TransportSecret string

	SessionTTL         time.Duration // default: 1h
	MaxSessionTTL      time.Duration // default: 12h
	RefreshTTL         time.Duration // default: 24h
	RememberRefreshTTL time.Duration // default: 720h

	Lockout service.LockoutPolicy // default: 3 failures in 1h, 15m cooldown

	AttemptRetention     time.Duration // Ledger pruning horizon (default: 2160h)
	HousekeepingSchedule string        // Cron spec for pruning (default: @every 1h)

	OTLPEndpoint   string // Optional: enables tracing when set
	SwaggerEnabled bool   // Serve /swagger/ (default: true)
}

func LoadConfig() Config {
	lockout := service.DefaultLockoutPolicy()

	cfg := Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		Issuer:         getEnvOrDefault("AUTH_ISSUER", "gatehouse-auth"),
		DatabaseDriver: strings.ToLower(getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("AUTH_DATABASE_URL"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SeedFile:       os.Getenv("AUTH_SEED_FILE"),

		TokenSecret:     os.Getenv("AUTH_TOKEN_SECRET"),
		RefreshSecret:   os.Getenv("AUTH_REFRESH_SECRET"),
		TransportSecret: os.Getenv("AUTH_TRANSPORT_SECRET"),

		SessionTTL:         getEnvDurationOrDefault("AUTH_SESSION_TTL", jwtx.DefaultSessionTTL),
		MaxSessionTTL:      getEnvDurationOrDefault("AUTH_MAX_SESSION_TTL", jwtx.DefaultMaxSessionTTL),
		RefreshTTL:         getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTTL),
		RememberRefreshTTL: getEnvDurationOrDefault("AUTH_REMEMBER_REFRESH_TTL", jwtx.DefaultRememberRefreshTTL),

		Lockout: service.LockoutPolicy{
			Threshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", lockout.Threshold),
			Window:    getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", lockout.Window),
			Cooldown:  getEnvDurationOrDefault("AUTH_LOCKOUT_COOLDOWN", lockout.Cooldown),
		},

		AttemptRetention:     getEnvDurationOrDefault("AUTH_ATTEMPT_RETENTION", 90*24*time.Hour),
		HousekeepingSchedule: getEnvOrDefault("HOUSEKEEPING_SCHEDULE", service.DefaultHousekeepingSchedule),

		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SwaggerEnabled: getEnvBoolOrDefault("AUTH_SWAGGER_ENABLED", true),
	}

	return cfg
}

// IsDev reports whether ephemeral secrets are acceptable.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if !c.IsDev() {
		if c.TokenSecret == "" {
			errs = append(errs, errors.New("AUTH_TOKEN_SECRET is required outside dev"))
		}
		if c.TransportSecret == "" {
			errs = append(errs, errors.New("AUTH_TRANSPORT_SECRET is required outside dev"))
		}
	}
	if c.TokenSecret != "" && len(c.TokenSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.RefreshSecret != "" && len(c.RefreshSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}

	if c.SessionTTL <= 0 || c.RefreshTTL <= 0 || c.RememberRefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.SessionTTL > c.MaxSessionTTL {
		errs = append(errs, fmt.Errorf("AUTH_SESSION_TTL %s exceeds AUTH_MAX_SESSION_TTL %s", c.SessionTTL, c.MaxSessionTTL))
	}

	if c.Lockout.Threshold <= 0 {
		errs = append(errs, errors.New("AUTH_LOCKOUT_THRESHOLD must be positive"))
	}
	if c.Lockout.Window <= 0 || c.Lockout.Cooldown <= 0 {
		errs = append(errs, errors.New("AUTH_LOCKOUT_WINDOW and AUTH_LOCKOUT_COOLDOWN must be positive"))
	}

	if c.AttemptRetention > 0 && c.AttemptRetention < c.Lockout.Window {
		errs = append(errs, fmt.Errorf("AUTH_ATTEMPT_RETENTION %s is shorter than AUTH_LOCKOUT_WINDOW %s", c.AttemptRetention, c.Lockout.Window))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
