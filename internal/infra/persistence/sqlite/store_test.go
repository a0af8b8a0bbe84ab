package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := store.Set(ctx, "myPlants", []byte(`["p1","p2"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "myPlants", []byte(`["p1"]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	got, ok, err := reloaded.Get(ctx, "myPlants")
	if err != nil || !ok || string(got) != `["p1"]` {
		t.Fatalf("get = %q %v %v", got, ok, err)
	}
	if reloaded.Path() != path {
		t.Fatalf("path = %s", reloaded.Path())
	}
}

func TestSQLiteStoreKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing get = %v %v", ok, err)
	}
	for _, k := range []string{"yearPlans", "myGardenBeds"} {
		if err := store.Set(ctx, k, []byte(`{}`)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := store.Keys(ctx)
	if err != nil || !reflect.DeepEqual(keys, []string{"myGardenBeds", "yearPlans"}) {
		t.Fatalf("keys = %v %v", keys, err)
	}
	if ok, err := store.Delete(ctx, "yearPlans"); err != nil || !ok {
		t.Fatalf("delete = %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "yearPlans"); err != nil || ok {
		t.Fatalf("second delete = %v %v", ok, err)
	}
}

func TestSQLiteStoreKeepsCorruptPayloadVerbatim(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Set(ctx, "myGardenBeds", []byte("{broken")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _, err := store.Get(ctx, "myGardenBeds")
	if err != nil || string(got) != "{broken" {
		t.Fatalf("get = %q %v", got, err)
	}
}
