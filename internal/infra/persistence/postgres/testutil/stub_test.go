package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	insert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{`["p1"]`, `["p2"]`} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "myPlants"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["state"]) != 1 {
		t.Fatalf("expected upsert to keep one row, got %v", conn.Tables["state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "myPlants"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(dest[0].([]byte)) != `["p2"]` {
		t.Fatalf("unexpected row value: %v", dest)
	}

	res, err := conn.ExecContext(ctx, "DELETE FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "myPlants"}})
	if err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("expected one row deleted, got %d", n)
	}
}

func TestStubSelectWithoutPredicate(t *testing.T) {
	_, conn := NewStubDB()
	conn.Tables["state"] = []map[string]any{{"bucket": "a"}, {"bucket": "b"}}
	rows, err := conn.QueryContext(context.Background(), "SELECT bucket FROM state ORDER BY bucket", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 1)
	count := 0
	for rows.Next(dest) == nil {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
}
