package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

// AssertionConfig controls the test helpers.
type AssertionConfig[T any] struct {
	// Compare replaces deep equality when set.
	Compare func(legacy, experiment T) bool

	// Runs is how many times the pair is executed (useful for
	// nondeterministic paths). Values below 1 mean 1.
	Runs int
}

// DefaultAssertionConfig returns deep equality and a single run.
func DefaultAssertionConfig[T any]() AssertionConfig[T] {
	return AssertionConfig[T]{Runs: 1}
}

// verifyingEngine runs protocols in verification mode with logs discarded.
var verifyingEngine = NewEngine(WithVerifier(Always), WithLogger(slog.New(slog.DiscardHandler)))

// AssertAgree runs legacy and experiment side by side in verification mode
// and fails the test on any divergence. Identical failures on both sides
// count as agreement.
func AssertAgree[T any](t testing.TB, name string, legacy, experiment func() (T, error), cfg AssertionConfig[T]) {
	t.Helper()

	runs := max(cfg.Runs, 1)
	for i := 0; i < runs; i++ {
		_, err := RunContext(context.Background(), verifyingEngine, name, func(p *Protocol[T]) {
			p.Legacy(legacy).Experiment(experiment)
			if cfg.Compare != nil {
				p.CompareWith(cfg.Compare)
			}
		})

		var divErr *DivergenceError
		var cfgErr *ConfigurationError
		switch {
		case errors.As(err, &divErr):
			t.Errorf("Protocol %q diverged on run %d/%d:\n  legacy:     %s\n  experiment: %s",
				name, i+1, runs, divErr.Legacy, divErr.Experiment)
			return
		case errors.As(err, &cfgErr):
			t.Fatalf("Protocol %q misconfigured: %v", name, cfgErr)
		}
	}

	t.Logf("✓ %s: legacy and experiment agree (%d runs)", name, runs)
}

// AssertDiverges is the inverse of AssertAgree: it fails the test unless
// the two paths disagree on at least one run.
func AssertDiverges[T any](t testing.TB, name string, legacy, experiment func() (T, error), cfg AssertionConfig[T]) {
	t.Helper()

	runs := max(cfg.Runs, 1)
	for i := 0; i < runs; i++ {
		var seen bool
		_, err := RunContext(context.Background(), verifyingEngine, name, func(p *Protocol[T]) {
			p.Legacy(legacy).Experiment(experiment)
			if cfg.Compare != nil {
				p.CompareWith(cfg.Compare)
			}
			p.OnDivergence(func(l, x Outcome[T]) error {
				seen = true
				return nil
			})
		})

		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			t.Fatalf("Protocol %q misconfigured: %v", name, cfgErr)
		}
		if seen {
			t.Logf("✓ %s: divergence detected on run %d", name, i+1)
			return
		}
	}

	t.Errorf("Protocol %q never diverged in %d runs", name, runs)
}

// AssertAgreeAll runs AssertAgree as a subtest for every input.
func AssertAgreeAll[In, T any](t *testing.T, name string, inputs []In, legacy, experiment func(In) (T, error), cfg AssertionConfig[T]) {
	t.Helper()

	for i, in := range inputs {
		label := fmt.Sprintf("%s/%d", name, i)
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			AssertAgree(t, label,
				func() (T, error) { return legacy(in) },
				func() (T, error) { return experiment(in) },
				cfg)
		})
	}
}
