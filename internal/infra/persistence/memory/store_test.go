package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, ok, err := store.Get(ctx, "myPlants"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "myPlants", []byte(`["p1"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get(ctx, "myPlants")
	if err != nil || !ok || string(got) != `["p1"]` {
		t.Fatalf("get = %q %v %v", got, ok, err)
	}
	got[0] = 'X'
	again, _, _ := store.Get(ctx, "myPlants")
	if string(again) != `["p1"]` {
		t.Fatalf("stored value aliased caller slice: %q", again)
	}
	if err := store.Set(ctx, "yearPlans", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil || !reflect.DeepEqual(keys, []string{"myPlants", "yearPlans"}) {
		t.Fatalf("keys = %v %v", keys, err)
	}
	if ok, err := store.Delete(ctx, "myPlants"); err != nil || !ok {
		t.Fatalf("delete = %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "myPlants"); err != nil || ok {
		t.Fatalf("second delete = %v %v", ok, err)
	}
}

func TestStoreSeedAndClose(t *testing.T) {
	ctx := context.Background()
	store := NewStoreWithData(map[string]string{"myGardenBeds": "{not json"})
	got, ok, err := store.Get(ctx, "myGardenBeds")
	if err != nil || !ok || string(got) != "{not json" {
		t.Fatalf("seeded get = %q %v %v", got, ok, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := store.Get(ctx, "myGardenBeds"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := store.Set(ctx, "k", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
