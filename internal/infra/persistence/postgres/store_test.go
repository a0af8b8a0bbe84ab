package postgres

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gardenplanner/internal/infra/persistence/postgres/testutil"
)

func openStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStubStore(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := openStubStore(t)
	if _, ok, err := store.Get(ctx, "yearPlans"); err != nil || ok {
		t.Fatalf("missing get = %v %v", ok, err)
	}
	if err := store.Set(ctx, "yearPlans", []byte(`{"plans":{}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "myPlants", []byte(`["p1"]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := store.Get(ctx, "myPlants")
	if err != nil || !ok || string(got) != `["p1"]` {
		t.Fatalf("get = %q %v %v", got, ok, err)
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

func TestNewStorePropagatesFailures(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("no driver") })
	if _, err := NewStore(context.Background(), "postgres://example"); err == nil {
		t.Fatalf("expected open failure")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping failure, got %v", err)
	}
}

func TestStoreSurfacesExecErrors(t *testing.T) {
	store, conn := openStubStore(t)
	conn.FailExec = true
	if err := store.Set(context.Background(), "myPlants", []byte(`[]`)); err == nil {
		t.Fatalf("expected exec failure")
	}
	conn.FailExec = false
	conn.FailQuery = true
	if _, _, err := store.Get(context.Background(), "myPlants"); err == nil {
		t.Fatalf("expected query failure")
	}
}
