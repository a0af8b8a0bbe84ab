package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"gardenplanner/internal/blob/core"
)

func TestStoreCreateOnlyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
	meta := map[string]string{"kind": "beds"}
	if _, err := store.Put(ctx, "exports/beds-2026-04-01.json", bytes.NewReader([]byte(`[]`)), core.PutOptions{ContentType: "application/json", Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["kind"] = "mutated"
	if _, err := store.Put(ctx, "exports/beds-2026-04-01.json", bytes.NewReader([]byte(`[1]`)), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	info, rc, err := store.Get(ctx, "exports/beds-2026-04-01.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `[]` || info.Metadata["kind"] != "beds" || info.ContentType != "application/json" {
		t.Fatalf("unexpected object %+v %q", info, body)
	}
}

func TestStoreMissingKeysAndListing(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head missing = %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get missing = %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("delete missing = %v %v", ok, err)
	}
	for _, k := range []string{"exports/b.json", "exports/a.json", "other/c.json"} {
		if _, err := store.Put(ctx, k, bytes.NewReader(nil), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "exports/")
	if err != nil || len(list) != 2 || list[0].Key != "exports/a.json" {
		t.Fatalf("list = %+v %v", list, err)
	}
	if _, err := store.PresignURL(ctx, "exports/a.json", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("presign = %v", err)
	}
	if _, err := store.Put(ctx, "  ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected blank key error")
	}
}
