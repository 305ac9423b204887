// Package config parses the console's runtime settings from flags, the
// environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"academy/internal/adapters/storage/session"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config errors
var (
	ErrMissingSecret = errors.New("ACADEMY_CSRF_KEY and ACADEMY_SESSION_KEY are required in production")
	ErrInvalidKey    = errors.New("keys must be 64 hex characters (32 bytes)")
)

// Config is the validated runtime configuration.
type Config struct {
	Addr        string        `validate:"required"`
	APIURL      string        `validate:"required,url"`
	Env         string        `validate:"oneof=development production test"`
	DBDriver    string        `validate:"oneof=sqlite postgres"`
	DBDSN       string        `validate:"required"`
	CSRFKey     string        `validate:"omitempty,hexadecimal,len=64"`
	SessionKey  string        `validate:"omitempty,hexadecimal,len=64"`
	ResendKey   string
	ResendFrom  string        `validate:"required"`
	Timezone    string        `validate:"required"`
	APITimeout  time.Duration `validate:"gte=0"`
	SessionTTL  time.Duration `validate:"gt=0"`
	LogLevel    slog.Level
	SlowRequest time.Duration `validate:"gt=0"`
	SlowQuery   time.Duration `validate:"gt=0"`

	// Location is Timezone resolved; "today" for attendance marks is computed in it.
	Location *time.Location `validate:"-"`
}

// IsProduction reports whether the console runs in production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadDotEnv loads .env files into the environment. Missing files are not an
// error; variables already set win.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		slog.Debug("dotenv_skipped", "error", err)
	}
}

// Load parses args with environment fallbacks and validates the result.
// PRE: getenv is os.Getenv or a test double
// POST: Location is set; production configs carry both keys
func Load(args []string, getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	apiTimeout, err := time.ParseDuration(env("ACADEMY_API_TIMEOUT", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("ACADEMY_API_TIMEOUT: %w", err)
	}
	sessionTTL, err := time.ParseDuration(env("ACADEMY_SESSION_TTL", "12h"))
	if err != nil {
		return Config{}, fmt.Errorf("ACADEMY_SESSION_TTL: %w", err)
	}
	slowRequestMS, err := strconv.Atoi(env("ACADEMY_SLOW_REQUEST_MS", "200"))
	if err != nil {
		return Config{}, fmt.Errorf("ACADEMY_SLOW_REQUEST_MS: %w", err)
	}
	slowQueryMS, err := strconv.Atoi(env("ACADEMY_SLOW_QUERY_MS", "50"))
	if err != nil {
		return Config{}, fmt.Errorf("ACADEMY_SLOW_QUERY_MS: %w", err)
	}

	var cfg Config
	var logLevel string
	fs := flag.NewFlagSet("academy", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", env("ACADEMY_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.APIURL, "api", env("ACADEMY_API_URL", "http://localhost:3000"), "Academy backend base URL")
	fs.StringVar(&cfg.Env, "env", env("ACADEMY_ENV", EnvDevelopment), "development, production or test")
	fs.StringVar(&cfg.DBDriver, "db-driver", env("ACADEMY_DB_DRIVER", "sqlite"), "sqlite or postgres")
	fs.StringVar(&cfg.DBDSN, "db", env("ACADEMY_DB_DSN", "academy.db"), "Database DSN")
	fs.StringVar(&cfg.CSRFKey, "csrf-key", getenv("ACADEMY_CSRF_KEY"), "CSRF key, hex (prefer env)")
	fs.StringVar(&cfg.SessionKey, "session-key", getenv("ACADEMY_SESSION_KEY"), "Session sealing key, hex (prefer env)")
	fs.StringVar(&cfg.ResendKey, "resend-key", getenv("ACADEMY_RESEND_KEY"), "Resend API key (prefer env)")
	fs.StringVar(&cfg.ResendFrom, "resend-from", env("ACADEMY_RESEND_FROM", "Madestone Sports Academy <noreply@localhost>"), "From address for exports")
	fs.StringVar(&cfg.Timezone, "tz", env("ACADEMY_TIMEZONE", "Local"), "IANA zone used for today's date")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", apiTimeout, "Backend request timeout, 0 for none")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", sessionTTL, "Session lifetime")
	fs.StringVar(&logLevel, "log-level", env("ACADEMY_LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.DurationVar(&cfg.SlowRequest, "slow-request", time.Duration(slowRequestMS)*time.Millisecond, "Slow request threshold")
	fs.DurationVar(&cfg.SlowQuery, "slow-query", time.Duration(slowQueryMS)*time.Millisecond, "Slow query threshold")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.IsProduction() && (cfg.CSRFKey == "" || cfg.SessionKey == "") {
		return Config{}, ErrMissingSecret
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("ACADEMY_TIMEZONE: %w", err)
	}
	cfg.Location = loc
	return cfg, nil
}

// CSRFSecret returns the decoded CSRF key, or a random one when unset.
// POST: The secret is 32 bytes; generated reports whether it was random
func (c Config) CSRFSecret() (secret []byte, generated bool, err error) {
	key, generated, err := keyOrRandom(c.CSRFKey)
	if err != nil {
		return nil, false, err
	}
	return key[:], generated, nil
}

// SessionSecret returns the decoded session sealing key, or a random one when unset.
func (c Config) SessionSecret() (secret [session.KeySize]byte, generated bool, err error) {
	return keyOrRandom(c.SessionKey)
}

func keyOrRandom(keyHex string) ([session.KeySize]byte, bool, error) {
	if keyHex == "" {
		key, err := session.RandomKey()
		if err != nil {
			return key, false, fmt.Errorf("generate key: %w", err)
		}
		return key, true, nil
	}
	key, err := session.ParseKey(keyHex)
	if err != nil {
		return key, false, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, false, nil
}
