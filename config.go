package experiment

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
)

// Config is the environment-driven engine configuration.
type Config struct {
	Verify   bool       `env:"EXPERIMENT_VERIFY"       envDefault:"false"`
	LogLevel slog.Level `env:"EXPERIMENT_LOG_LEVEL"    envDefault:"INFO"`
	NoColor  bool       `env:"EXPERIMENT_LOG_NOCOLOR"  envDefault:"false"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Verify:   false,
		LogLevel: slog.LevelInfo,
	}
}

// LoadConfigFromEnv parses Config from the environment.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Verifying makes a Config usable as a fixed Verifier.
func (c Config) Verifying() bool {
	return c.Verify
}

// NewLogger returns a tint-backed slog logger writing to w.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    cfg.NoColor,
	}))
}

// NewEngineFromConfig builds an engine whose verification mode and logger
// follow cfg. Logs go to w. Extra options are applied last.
func NewEngineFromConfig(cfg Config, w io.Writer, opts ...Option) *Engine {
	base := []Option{
		WithVerifier(cfg),
		WithLogger(NewLogger(w, cfg)),
	}
	return NewEngine(append(base, opts...)...)
}
