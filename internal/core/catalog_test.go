package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gardenplanner/pkg/domain"
)

const catalogDoc = `[
	{"id": "p1", "name": "Morot", "source": "Impecta", "sowing_months": [4, 5, 5, 13], "harvest_months": [7, 8]},
	{"id": 17, "name": "Ärtor", "category": "  ", "sow_outdoor_months": [4]},
	{"id": "", "name": "Utan id"},
	{"id": "p1", "name": "Dubblett"},
	{"id": "p3", "name": "Ringblomma", "category": "Blommor", "bloom_months": [6, 7]}
]`

func TestLoadCatalogNormalizesEntries(t *testing.T) {
	logger := &captureLogger{}
	c, err := LoadCatalog(context.Background(), BytesCatalogSource("embedded", []byte(catalogDoc)), logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d", c.Len())
	}
	morot, _ := c.Lookup("p1")
	if diff := cmp.Diff([]int{4, 5}, morot.SowingMonths); diff != "" {
		t.Fatalf("sowing months (-want +got):\n%s", diff)
	}
	if morot.Category != domain.DefaultCategory || morot.SeedlingMonths == nil {
		t.Fatalf("morot = %+v", morot)
	}
	artor, ok := c.Lookup("17")
	if !ok || artor.Category != domain.DefaultCategory || !domain.HasMonth(artor.SowingMonths, 4) {
		t.Fatalf("numeric id plant = %+v", artor)
	}
	ring, _ := c.Lookup("p3")
	if ring.Category != "Blommor" || !domain.HasMonth(ring.HarvestMonths, 6) {
		t.Fatalf("bloom fallback = %+v", ring)
	}
	for _, fragment := range []string{"without id", "duplicate", "out-of-range"} {
		if !logger.contains(fragment) {
			t.Fatalf("missing warning %q in %v", fragment, logger.lines)
		}
	}
	if diff := cmp.Diff([]string{"Impecta"}, c.Sources()); diff != "" {
		t.Fatalf("sources (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Blommor", "Övrigt"}, c.Categories()); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}
	if c.DisplayName("nope") != "nope" {
		t.Fatalf("display name fallback")
	}
}

func TestLoadCatalogFailuresAreTyped(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/plants.json" {
			_, _ = w.Write([]byte(catalogDoc))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	sources := []CatalogSource{
		BytesCatalogSource("bad", []byte(`{"plants": []}`)),
		FileCatalogSource(filepath.Join(t.TempDir(), "missing.json")),
		HTTPCatalogSource(srv.URL+"/missing.json", srv.Client()),
		BytesCatalogSource("no usable", []byte(`[{"name": "utan id"}]`)),
	}
	for _, src := range sources {
		_, err := LoadCatalog(ctx, src, nil)
		var loadErr *domain.CatalogLoadError
		if !errors.As(err, &loadErr) || loadErr.Source != src.Name() {
			t.Fatalf("%s: err = %v", src.Name(), err)
		}
	}

	c, err := LoadCatalog(ctx, HTTPCatalogSource(srv.URL+"/plants.json", srv.Client()), nil)
	if err != nil || c.Len() != 3 {
		t.Fatalf("http load = %v, %v", c, err)
	}
}

func TestServiceLoadCatalogKeepsPreviousOnFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plants.json")
	if err := os.WriteFile(path, []byte(catalogDoc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := newTestService(t)
	if err := svc.LoadCatalog(ctx, FileCatalogSource(path)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := svc.LoadCatalog(ctx, BytesCatalogSource("broken", []byte(`[`))); err == nil {
		t.Fatalf("expected failure")
	}
	if svc.Catalog().Len() != 3 {
		t.Fatalf("catalog replaced after failure: %d", svc.Catalog().Len())
	}
}
