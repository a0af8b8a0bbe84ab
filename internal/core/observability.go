package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq atomic.Uint64

// ExpvarMetricsRecorder keeps per-operation call counts and latency totals in
// an expvar map, so they show up under /debug/vars when the process serves
// it. Keys are "<operation>.ok", "<operation>.error" and "<operation>.ms".
type ExpvarMetricsRecorder struct {
	name string
	vars *expvar.Map
}

// NewExpvarMetricsRecorder publishes a new map under name, or under a
// generated gardenplanner_ops_N name when name is empty. expvar names are
// process-global; publishing the same name twice panics.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("gardenplanner_ops_%d", expvarSeq.Add(1))
	}
	return &ExpvarMetricsRecorder{name: name, vars: expvar.NewMap(name)}
}

// Name returns the published expvar name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := ".error"
	if success {
		outcome = ".ok"
	}
	r.vars.Add(operation+outcome, 1)
	r.vars.AddFloat(operation+".ms", float64(duration)/float64(time.Millisecond))
}

// Count returns how many times operation finished with the given outcome.
func (r *ExpvarMetricsRecorder) Count(operation string, success bool) int64 {
	outcome := ".error"
	if success {
		outcome = ".ok"
	}
	if v, ok := r.vars.Get(operation + outcome).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}

// TraceRecord is one finished span written by JSONTracer.
type TraceRecord struct {
	Operation  string    `json:"operation"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
}

// JSONTracer writes one JSON line per finished span and keeps the records
// for inspection.
type JSONTracer struct {
	clock   Clock
	mu      sync.Mutex
	enc     *json.Encoder
	records []TraceRecord
}

// NewJSONTracer writes spans to w; a nil w only retains them.
func NewJSONTracer(w io.Writer, clock Clock) *JSONTracer {
	if clock == nil {
		clock = ClockFunc(nil)
	}
	t := &JSONTracer{clock: clock}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Records returns the finished spans in completion order.
func (t *JSONTracer) Records() []TraceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Start implements Tracer.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, operation: operation, started: t.clock.Now()}
}

type jsonSpan struct {
	tracer    *JSONTracer
	operation string
	started   time.Time
	ended     atomic.Bool
}

func (s *jsonSpan) End(err error) {
	if s.ended.Swap(true) {
		return
	}
	rec := TraceRecord{
		Operation:  s.operation,
		OK:         err == nil,
		StartedAt:  s.started,
		DurationMS: float64(s.tracer.clock.Now().Sub(s.started)) / float64(time.Millisecond),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	t := s.tracer
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	if t.enc != nil {
		_ = t.enc.Encode(rec)
	}
}

// AuditLog retains audit entries in memory, newest last, up to a limit.
type AuditLog struct {
	mu      sync.Mutex
	limit   int
	entries []AuditEntry
}

// NewAuditLog keeps at most limit entries; limit <= 0 keeps everything.
func NewAuditLog(limit int) *AuditLog { return &AuditLog{limit: limit} }

// Record implements AuditRecorder.
func (l *AuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = append([]AuditEntry(nil), l.entries[len(l.entries)-l.limit:]...)
	}
}

// Entries returns a copy of the retained entries.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
