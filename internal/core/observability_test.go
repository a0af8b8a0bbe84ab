package core

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gardenplanner/pkg/domain"
)

func TestServiceRecordsAuditMetricsAndTraces(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditLog(0)
	var traceOut bytes.Buffer
	tracer := NewJSONTracer(&traceOut, newStepClock())
	metrics := NewExpvarMetricsRecorder("")
	svc := newTestService(t, WithAuditRecorder(audit), WithTracer(tracer), WithMetricsRecorder(metrics))

	bed := mustCreateBed(t, svc, "B1")
	if _, err := svc.Beds().Create(ctx, BedInput{Name: ""}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var okEntry, errEntry bool
	for _, e := range audit.Entries() {
		if e.Operation != "create_bed" {
			continue
		}
		switch e.Status {
		case AuditStatusSuccess:
			okEntry = e.EntityID == bedKey(bed.ID)
		case AuditStatusError:
			errEntry = strings.Contains(e.Error, "must not be blank")
		}
	}
	if !okEntry || !errEntry {
		t.Fatalf("audit entries = %+v", audit.Entries())
	}

	if metrics.Count("create_bed", true) != 1 || metrics.Count("create_bed", false) != 1 {
		t.Fatalf("expvar counts ok=%d error=%d", metrics.Count("create_bed", true), metrics.Count("create_bed", false))
	}
	if expvar.Get(metrics.Name()) == nil {
		t.Fatalf("expvar %s not published", metrics.Name())
	}

	var lines []TraceRecord
	for _, line := range strings.Split(strings.TrimSpace(traceOut.String()), "\n") {
		var rec TraceRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("trace line %q: %v", line, err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != len(tracer.Records()) {
		t.Fatalf("written %d spans, retained %d", len(lines), len(tracer.Records()))
	}
	last := lines[len(lines)-1]
	if last.Operation != "create_bed" || last.OK || last.DurationMS <= 0 {
		t.Fatalf("last span = %+v", last)
	}
}

func TestAuditLogKeepsNewest(t *testing.T) {
	log := NewAuditLog(2)
	for _, op := range []string{"a", "b", "c"} {
		log.Record(context.Background(), AuditEntry{Operation: op})
	}
	entries := log.Entries()
	if len(entries) != 2 || entries[0].Operation != "b" || entries[1].Operation != "c" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := newTestService(t, WithMetricsRecorder(rec))
	mustCreatePlan(t, svc, "2024")
	if _, err := svc.Plans().CreatePlan(context.Background(), "2024"); err == nil {
		t.Fatalf("duplicate plan accepted")
	}

	if got := testutil.ToFloat64(rec.Counter("create_year_plan", "ok")); got != 1 {
		t.Fatalf("ok counter = %v", got)
	}
	if got := testutil.ToFloat64(rec.Counter("create_year_plan", "error")); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
	if n := testutil.CollectAndCount(rec.Collectors()[1]); n == 0 {
		t.Fatalf("histogram has no series")
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("registering twice should fail")
	}
}

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))
	svc := newTestService(t, WithLogger(logger))

	mustCreateBed(t, svc, "B1")
	if err := svc.Beds().Delete(context.Background(), 404); !domain.IsNotFound(err) {
		t.Fatalf("delete = %v", err)
	}

	if logs.FilterMessage("operation completed").FilterField(zap.String("operation", "create_bed")).Len() != 1 {
		t.Fatalf("missing debug entry: %v", logs.All())
	}
	rejected := logs.FilterMessage("operation rejected").All()
	if len(rejected) != 1 || rejected[0].Level != zapcore.InfoLevel {
		t.Fatalf("rejected entries = %v", rejected)
	}

	if _, _, err := NewZapLoggerAt("loud"); err == nil {
		t.Fatalf("expected bad level error")
	}
}
