package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Config holds the runtime settings of the calculator API.
type Config struct {
	Addr            string        `env:"CALC_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"CALC_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Locale controls digit grouping on the display.
	Locale string `env:"CALC_LOCALE" envDefault:"en-US"`

	SessionTTL    time.Duration `env:"CALC_SESSION_TTL"    envDefault:"30m"`
	SweepInterval time.Duration `env:"CALC_SWEEP_INTERVAL" envDefault:"1m"`
	MaxSessions   int           `env:"CALC_MAX_SESSIONS"   envDefault:"10000"`

	// OTLPLogs tees the zap logger to the OTLP log exporter.
	OTLPLogs    bool   `env:"CALC_OTLP_LOGS"    envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"calculator-api"`
}

// Load parses Config from the process environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("CALC_ADDR must not be empty"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CALC_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("CALC_SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("CALC_SWEEP_INTERVAL must be positive, got %s", c.SweepInterval))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("CALC_MAX_SESSIONS must not be negative, got %d", c.MaxSessions))
	}
	if _, err := c.LanguageTag(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LanguageTag parses Locale.
func (c Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("CALC_LOCALE %q: %w", c.Locale, err)
	}
	return tag, nil
}
