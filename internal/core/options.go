package core

import (
	"context"
	"time"

	"gardenplanner/internal/blob"
)

// Clock supplies the current time for ids and timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc uses time.Now.
type ClockFunc func() time.Time

// Now returns the current time in UTC.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// Logger is the structured logging surface used by the service. Arguments are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AuditStatus is the outcome recorded for an operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service operation.
type AuditEntry struct {
	Operation  string
	EntityID   string
	Status     AuditStatus
	Error      string
	Duration   time.Duration
	OccurredAt time.Time
}

// AuditRecorder receives one entry per service operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation latency and outcome.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan is ended exactly once with the operation's error.
type TraceSpan interface {
	End(err error)
}

// Tracer starts a span per operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f; a nil ConfirmFunc declines.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	if f == nil {
		return false
	}
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
func AlwaysConfirm() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return true })
}

// NeverConfirm declines every prompt. It is the default.
func NeverConfirm() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return false })
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type serviceOptions struct {
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	confirmer Confirmer
	feed      *ChangeFeed
	exports   blob.Store
}

// ServiceOption customizes a Service.
type ServiceOption func(*serviceOptions)

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:     ClockFunc(nil),
		logger:    noopLogger{},
		audit:     noopAudit{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
		confirmer: NeverConfirm(),
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(rec AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithConfirmer sets who approves destructive actions.
func WithConfirmer(c Confirmer) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.confirmer = c
		}
	}
}

// WithChangeFeed shares a feed between services or with a StoreWatcher.
func WithChangeFeed(feed *ChangeFeed) ServiceOption {
	return func(o *serviceOptions) {
		if feed != nil {
			o.feed = feed
		}
	}
}

// WithExportStore sets where export files are written. Defaults to an
// in-memory archive.
func WithExportStore(store blob.Store) ServiceOption {
	return func(o *serviceOptions) {
		if store != nil {
			o.exports = store
		}
	}
}
