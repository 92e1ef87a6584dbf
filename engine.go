package experiment

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/alexshd/experiment"

// Engine executes protocols. It carries the verification-mode hook and the
// ambient logger and tracer; it holds no per-protocol state and may be
// shared.
type Engine struct {
	verifier Verifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithVerifier sets the verification-mode hook. Nil means Never.
func WithVerifier(v Verifier) Option {
	return func(e *Engine) {
		if v == nil {
			v = Never
		}
		e.verifier = v
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracerProvider sets where execution spans are sent.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// NewEngine creates an engine. Defaults: never verifying, slog.Default(),
// the global OpenTelemetry tracer provider.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		verifier: Never,
		logger:   slog.Default(),
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verifying reports whether the engine's hook currently reports verification mode.
func (e *Engine) Verifying() bool {
	return e.withDefaults().verifier.Verifying()
}

// withDefaults fills the fields a zero Engine leaves nil.
func (e *Engine) withDefaults() *Engine {
	if e.verifier != nil && e.logger != nil && e.tracer != nil {
		return e
	}
	filled := *e
	if filled.verifier == nil {
		filled.verifier = Never
	}
	if filled.logger == nil {
		filled.logger = slog.Default()
	}
	if filled.tracer == nil {
		filled.tracer = otel.Tracer(instrumentationName)
	}
	return &filled
}

var defaultEngine atomic.Pointer[Engine]

func init() {
	defaultEngine.Store(NewEngine())
}

// Default returns the process-wide engine used by Run.
func Default() *Engine {
	return defaultEngine.Load()
}

// SetDefault replaces the process-wide engine used by Run.
func SetDefault(e *Engine) {
	if e != nil {
		defaultEngine.Store(e)
	}
}

// Run builds a protocol named name, lets configure set it up, and executes
// it on the default engine.
//
//	price, err := experiment.Run("pricing", func(p *experiment.Protocol[int]) {
//	    p.Legacy(oldPrice).Experiment(newPrice)
//	})
func Run[T any](name string, configure func(p *Protocol[T])) (T, error) {
	return RunContext(context.Background(), Default(), name, configure)
}

// RunContext is Run with an explicit context and engine. The context only
// parents the execution span; operations are not cancelled.
func RunContext[T any](ctx context.Context, e *Engine, name string, configure func(p *Protocol[T])) (T, error) {
	p, err := New[T](name)
	if err != nil {
		var zero T
		return zero, err
	}
	if configure != nil {
		configure(p)
	}
	return Execute(ctx, e, p)
}

// Execute runs a configured protocol once.
//
// The legacy operation always runs. The experiment runs when the engine is
// verifying or the enable predicate returns true, strictly after legacy.
// When a divergence handler is set (or verification mode installs the
// raising one) and the outcomes differ, the handler is called before the
// legacy outcome is forwarded. The returned value and error are those of
// the legacy operation unless the handler returns an error.
//
// A nil protocol is a ConfigurationError. A nil engine means Default(), and
// a zero Engine behaves like NewEngine().
func Execute[T any](ctx context.Context, e *Engine, p *Protocol[T]) (T, error) {
	var zero T
	if p == nil {
		return zero, &ConfigurationError{Reason: ReasonMissingProtocol}
	}
	if e == nil {
		e = Default()
	}
	e = e.withDefaults()
	if err := p.validate(); err != nil {
		return zero, err
	}

	verifying := e.verifier.Verifying()
	ctx, span := e.tracer.Start(ctx, "experiment.Run",
		trace.WithAttributes(
			attribute.String("experiment.name", p.name),
			attribute.Bool("experiment.verifying", verifying),
		),
	)
	defer span.End()

	legacy := capture(p.legacy)

	if !verifying && !p.enable() {
		span.SetAttributes(attribute.Bool("experiment.ran", false))
		e.logger.DebugContext(ctx, "experiment skipped", slog.String("protocol", p.name))
		return forward(span, legacy)
	}

	experiment := capture(p.experiment)
	span.SetAttributes(attribute.Bool("experiment.ran", true))

	handler := p.onDivergence
	if handler == nil && verifying {
		handler = p.raiseOnDivergence
	}
	if handler != nil {
		isDiverged := diverged(legacy, experiment, p.compare)
		span.SetAttributes(attribute.Bool("experiment.diverged", isDiverged))
		if isDiverged {
			e.logger.DebugContext(ctx, "divergence detected",
				slog.String("protocol", p.name),
				slog.String("legacy", legacy.String()),
				slog.String("experiment", experiment.String()),
			)
			if err := handler(legacy, experiment); err != nil {
				recordError(span, err)
				return zero, err
			}
		}
	}

	return forward(span, legacy)
}

// forward surfaces the legacy outcome: its error unchanged, its panic
// re-raised with the original value, or its value.
func forward[T any](span trace.Span, legacy Outcome[T]) (T, error) {
	f := legacy.Failure()
	if f == nil {
		span.SetStatus(codes.Ok, "")
		return legacy.Value(), nil
	}

	if f.Panicked() {
		span.SetStatus(codes.Error, f.Message)
		panic(f.Recovered)
	}
	recordError(span, f.Err)
	var zero T
	return zero, f.Err
}

// recordError marks the span failed. Typed nil errors are not recorded
// since their Error method may dereference the nil receiver.
func recordError(span trace.Span, err error) {
	if isNilError(err) {
		span.SetStatus(codes.Error, "<nil>")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
