package experiment

import (
	"log/slog"
)

// LogDivergence returns a divergence handler that logs both outcomes at
// Warn level under the protocol name and never fails the run.
//
//	p.OnDivergence(experiment.LogDivergence[int](logger, "pricing"))
func LogDivergence[T any](logger *slog.Logger, name string) func(legacy, experiment Outcome[T]) error {
	if logger == nil {
		logger = slog.Default()
	}
	return func(legacy, experiment Outcome[T]) error {
		logger.Warn("experiment diverged",
			slog.String("protocol", name),
			slog.String("legacy", legacy.String()),
			slog.String("experiment", experiment.String()),
			slog.Bool("legacy_failed", legacy.Failed()),
			slog.Bool("experiment_failed", experiment.Failed()),
		)
		return nil
	}
}
