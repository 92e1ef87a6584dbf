package experiment

import (
	"testing"

	"github.com/caarlos0/env/v11"
)

// Verifier answers whether the process is in verification mode. In
// verification mode every protocol runs its experiment and, unless the
// caller set a handler, any divergence fails the run with a
// *DivergenceError.
type Verifier interface {
	Verifying() bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func() bool

// Verifying calls f.
func (f VerifierFunc) Verifying() bool { return f() }

var (
	// Never is the default hook: verification mode is off.
	Never Verifier = VerifierFunc(func() bool { return false })

	// Always forces verification mode.
	Always Verifier = VerifierFunc(func() bool { return true })

	// TestBinary reports verification mode when running inside a go test binary.
	TestBinary Verifier = VerifierFunc(testing.Testing)
)

// EnvVerifier reads EXPERIMENT_VERIFY on every query, so flipping the
// variable takes effect for the next execution. Unparseable values count
// as off.
type EnvVerifier struct{}

type verifyEnv struct {
	Verify bool `env:"EXPERIMENT_VERIFY" envDefault:"false"`
}

// Verifying parses EXPERIMENT_VERIFY.
func (EnvVerifier) Verifying() bool {
	var cfg verifyEnv
	if err := env.Parse(&cfg); err != nil {
		return false
	}
	return cfg.Verify
}
