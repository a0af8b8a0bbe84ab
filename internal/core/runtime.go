package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

// runtime bundles what every registry needs: typed state access, time,
// observability, confirmation, change notification and the export archive.
type runtime struct {
	state     *StateStore
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	confirmer Confirmer
	feed      *ChangeFeed
	exports   blob.Store
}

// run wraps one operation with tracing, metrics, audit and logging. fn
// returns the id of the affected record for the audit trail.
func (r *runtime) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	ctx, span := r.tracer.Start(ctx, op)
	started := r.clock.Now()
	entityID, err := fn(ctx)
	elapsed := r.clock.Now().Sub(started)
	span.End(err)
	r.metrics.Observe(ctx, op, err == nil, elapsed)

	entry := AuditEntry{
		Operation:  op,
		EntityID:   entityID,
		Status:     AuditStatusSuccess,
		Duration:   elapsed,
		OccurredAt: started,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	r.audit.Record(ctx, entry)

	switch {
	case err == nil:
		r.logger.Debug("operation completed", "operation", op, "entity", entityID, "duration", elapsed)
	case isUserError(err):
		r.logger.Info("operation rejected", "operation", op, "entity", entityID, "reason", err.Error())
	default:
		r.logger.Error("operation failed", "operation", op, "entity", entityID, "error", err)
	}
	return err
}

// confirm returns domain.ErrNotConfirmed unless the user approves prompt.
func (r *runtime) confirm(ctx context.Context, prompt string) error {
	if r.confirmer.Confirm(ctx, prompt) {
		return nil
	}
	return domain.ErrNotConfirmed
}

// changed publishes a local change event for key.
func (r *runtime) changed(key string) {
	if r.feed == nil {
		return
	}
	r.feed.Publish(ChangeEvent{Key: key, At: r.clock.Now()})
}

func (r *runtime) now() time.Time { return r.clock.Now() }

func isUserError(err error) bool {
	var importErr *domain.ImportError
	return domain.IsValidation(err) || domain.IsNotFound(err) ||
		errors.Is(err, domain.ErrNotConfirmed) || errors.As(err, &importErr)
}

// export writes v as an indented JSON export file of kind.
func (r *runtime) export(ctx context.Context, kind string, v any) (blob.Info, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode %s export: %w", kind, err)
	}
	return blob.PutDated(ctx, r.exports, kind, r.now(), data)
}

// decodeImport parses an import file. Any failure is an *domain.ImportError
// and nothing has been applied yet.
func decodeImport[T any](r io.Reader) (T, error) {
	var zero T
	source := ""
	if named, ok := r.(interface{ Name() string }); ok {
		source = named.Name()
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return zero, &domain.ImportError{Source: source, Err: err}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, &domain.ImportError{Source: source, Err: err}
	}
	return v, nil
}

// recordsFromImport accepts either a registry export, where containerKey maps
// names to records, or a single record export carrying a "name" field.
func recordsFromImport[T any](doc map[string]json.RawMessage, containerKey string, nameOf func(T) string) (map[string]T, error) {
	if raw, ok := doc[containerKey]; ok {
		var records map[string]T
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, &domain.ImportError{Err: err}
		}
		for name := range records {
			if strings.TrimSpace(name) == "" {
				return nil, &domain.ImportError{Err: errors.New("record with blank name")}
			}
		}
		return records, nil
	}
	if _, ok := doc["name"]; !ok {
		return nil, &domain.ImportError{Err: fmt.Errorf("expected %q or a single named record", containerKey)}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, &domain.ImportError{Err: err}
	}
	var record T
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, &domain.ImportError{Err: err}
	}
	name := strings.TrimSpace(nameOf(record))
	if name == "" {
		return nil, &domain.ImportError{Err: errors.New("record with blank name")}
	}
	return map[string]T{name: record}, nil
}
