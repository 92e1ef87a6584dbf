// Package experiment runs a legacy code path and a candidate rewrite side by
// side and reports when they disagree, while production keeps receiving the
// legacy result.
//
// # Overview
//
// A protocol is a named pair of operations. The legacy operation is trusted:
// its value (or its error) is what the caller gets back. The experiment
// operation is the rewrite under evaluation: it runs after legacy, its
// outcome is compared, and differences are handed to a divergence handler.
// The experiment can never change what the caller sees, except through the
// handler itself.
//
// # Quick Start
//
//	total, err := experiment.Run("invoice-total", func(p *experiment.Protocol[int]) {
//	    p.Legacy(func() (int, error) { return legacyTotal(inv) }).
//	        Experiment(func() (int, error) { return newTotal(inv) }).
//	        OnDivergence(experiment.LogDivergence[int](logger, "invoice-total"))
//	})
//
// Run builds the protocol, calls the configuration callback, executes once
// and returns. Both operations run sequentially on the calling goroutine.
//
// # Outcomes
//
// Each operation produces an Outcome: a value or a Failure, never both.
// A failure is either a returned error or a recovered panic. Failures are
// compared by Kind (the error's Go type, or its Kind() method) and Message.
//
// Two outcomes diverge when:
//   - one failed and the other did not
//   - both failed with a different kind or message
//   - both succeeded and the compare function returns false
//
// The default compare function is reflect.DeepEqual. Replace it with
// CompareWith for values that need a looser notion of equality.
//
// # Forwarding
//
// The legacy outcome is forwarded after the comparison step:
//
//	legacy value   -> returned with a nil error
//	legacy error   -> the same error value is returned (errors.Is works)
//	legacy panic   -> re-panicked with the original value
//
// Experiment failures are never forwarded.
//
// # Enablement
//
// Enable sets a predicate deciding whether the experiment runs at all. When
// it returns false only the legacy operation runs and nothing is compared.
//
// # Verification Mode
//
// An Engine asks its Verifier once per execution whether the process is in
// verification mode. In verification mode:
//   - the experiment always runs, even when Enable returns false
//   - if no handler was set, RaiseOnDivergence is installed, so any
//     divergence is returned as a *DivergenceError instead of the legacy result
//
// Verifiers: Never (default), Always, TestBinary (inside go test),
// EnvVerifier (EXPERIMENT_VERIFY), or a Config loaded from the environment.
//
//	cfg, err := experiment.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	experiment.SetDefault(experiment.NewEngineFromConfig(cfg, os.Stderr))
//
// # Errors
//
//   - *ConfigurationError - empty name, nil callable, missing operation,
//     or a protocol executed twice. Returned before any operation runs.
//   - *DivergenceError - returned by RaiseOnDivergence handlers.
//   - anything the legacy operation returned, unchanged.
//
// # Testing
//
// Use the assertion helpers to check a rewrite against its legacy path:
//
//	func TestTotals(t *testing.T) {
//	    experiment.AssertAgree(t, "invoice-total", legacyTotal, newTotal,
//	        experiment.DefaultAssertionConfig[int]())
//	}
//
// # Observability
//
// Each execution opens an OpenTelemetry span "experiment.Run" on the
// engine's tracer provider and logs lifecycle events at Debug level on its
// slog logger. NewLogger builds a tint console logger.
package experiment
