package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/infra/persistence/memory"
	"gardenplanner/pkg/domain"
)

func TestTogglePlantInBedTwiceRestoresMembership(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	bed := mustCreateBed(t, svc, "B1")
	mustCreatePlan(t, svc, "2024")
	mustToggle(t, svc, "2024", bed.ID, "p2")
	before := svc.Plans().PlantsInPlan("2024")

	added, err := svc.Plans().TogglePlantInBed(ctx, "2024", bed.ID, "p1")
	if err != nil || !added {
		t.Fatalf("first toggle = %v, %v", added, err)
	}
	added, err = svc.Plans().TogglePlantInBed(ctx, "2024", bed.ID, "p1")
	if err != nil || added {
		t.Fatalf("second toggle = %v, %v", added, err)
	}
	if diff := cmp.Diff(before, svc.Plans().PlantsInPlan("2024")); diff != "" {
		t.Fatalf("membership changed (-want +got):\n%s", diff)
	}
}

func TestPlantsInPlanDeduplicatesAcrossBeds(t *testing.T) {
	svc := newTestService(t)
	b1 := mustCreateBed(t, svc, "B1")
	b2 := mustCreateBed(t, svc, "B2")
	mustCreatePlan(t, svc, "2024")
	mustToggle(t, svc, "2024", b1.ID, "p1")
	mustToggle(t, svc, "2024", b2.ID, "p1")
	mustToggle(t, svc, "2024", b2.ID, "p3")

	if diff := cmp.Diff([]string{"p1", "p3"}, svc.Plans().PlantsInPlan("2024")); diff != "" {
		t.Fatalf("plants (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{b1.ID, b2.ID}, svc.Plans().BedsForPlant("2024", "p1")); diff != "" {
		t.Fatalf("beds (-want +got):\n%s", diff)
	}
	if got := svc.Plans().PlantsInPlan("missing"); got == nil || len(got) != 0 {
		t.Fatalf("missing plan = %#v, want empty list", got)
	}
}

func TestCreatePlanValidatesAndActivates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.Plans().CreatePlan(ctx, "  "); !domain.IsValidation(err) {
		t.Fatalf("blank name = %v", err)
	}
	mustCreatePlan(t, svc, "2024")
	if _, err := svc.Plans().CreatePlan(ctx, "2024"); !domain.IsValidation(err) {
		t.Fatalf("duplicate name = %v", err)
	}
	if name, ok := svc.Plans().Active().PlanName(); !ok || name != "2024" {
		t.Fatalf("active = %v", svc.Plans().Active())
	}
	// A plan may be called "all" without colliding with the all-plants selection.
	mustCreatePlan(t, svc, "all")
	if svc.Plans().Active().IsAll() {
		t.Fatalf("plan named all treated as the all-plants selection")
	}
	if err := svc.Plans().SetActive(ctx, domain.AllPlans()); err != nil {
		t.Fatalf("set all: %v", err)
	}
	if !svc.Plans().Active().IsAll() {
		t.Fatalf("expected all-plants selection")
	}
}

func TestRenamePlanKeepsMembershipAndActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	bed := mustCreateBed(t, svc, "B1")
	mustCreatePlan(t, svc, "Vår")
	mustToggle(t, svc, "Vår", bed.ID, "p1")

	if _, err := svc.Plans().RenamePlan(ctx, "Vår", "Vår 2024"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, ok := svc.Plans().Plan("Vår"); ok {
		t.Fatalf("old name still present")
	}
	if got := svc.Plans().BedsForPlant("Vår 2024", "p1"); len(got) != 1 || got[0] != bed.ID {
		t.Fatalf("membership lost: %v", got)
	}
	if name, _ := svc.Plans().Active().PlanName(); name != "Vår 2024" {
		t.Fatalf("active = %q", name)
	}
}

func TestCopyPlanDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	bed := mustCreateBed(t, svc, "B1")
	mustCreatePlan(t, svc, "2024")
	mustToggle(t, svc, "2024", bed.ID, "p1")
	if err := svc.Plans().SetPlantDate(ctx, domain.SelectPlan("2024"), "p1", "2024-04-20"); err != nil {
		t.Fatalf("plant date: %v", err)
	}
	if err := svc.Plans().SetHarvestedDate(ctx, domain.SelectPlan("2024"), "p1", "2024-08-01"); err != nil {
		t.Fatalf("harvest date: %v", err)
	}

	copied, err := svc.Plans().CopyPlan(ctx, "2024", "2025")
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if copied.PlantDates["p1"] != "2024-04-20" || len(copied.HarvestedDates) != 0 {
		t.Fatalf("copy dates = %v / %v", copied.PlantDates, copied.HarvestedDates)
	}

	mustToggle(t, svc, "2025", bed.ID, "p2")
	if err := svc.Plans().SetPlantDate(ctx, domain.SelectPlan("2025"), "p1", ""); err != nil {
		t.Fatalf("clear date: %v", err)
	}
	orig, _ := svc.Plans().Plan("2024")
	if diff := cmp.Diff([]string{"p1"}, orig.PlantIDs()); diff != "" {
		t.Fatalf("source plan changed (-want +got):\n%s", diff)
	}
	if orig.PlantDates["p1"] != "2024-04-20" {
		t.Fatalf("source plan dates changed: %v", orig.PlantDates)
	}
}

func TestCopyPlanOverwriteNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	confirm := &recordingConfirmer{answer: true}
	svc := newTestService(t, WithConfirmer(confirm))
	bed := mustCreateBed(t, svc, "B1")
	mustCreatePlan(t, svc, "A")
	mustToggle(t, svc, "A", bed.ID, "p1")
	mustCreatePlan(t, svc, "B")

	confirm.set(false)
	if _, err := svc.Plans().CopyPlan(ctx, "A", "B"); !errors.Is(err, domain.ErrNotConfirmed) {
		t.Fatalf("declined copy = %v", err)
	}
	if got := svc.Plans().PlantsInPlan("B"); len(got) != 0 {
		t.Fatalf("declined copy wrote %v", got)
	}
	if len(confirm.prompts) != 1 {
		t.Fatalf("prompts = %v", confirm.prompts)
	}
}

func TestDeleteActivePlanSelectsFirstRemaining(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for _, name := range []string{"Ö-plan", "Beta", "Alfa"} {
		mustCreatePlan(t, svc, name)
	}
	if err := svc.Plans().DeletePlan(ctx, "Alfa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if name, _ := svc.Plans().Active().PlanName(); name != "Beta" {
		t.Fatalf("active after delete = %q", name)
	}
	if diff := cmp.Diff([]string{"Beta", "Ö-plan"}, svc.Plans().Names()); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestSetDateIgnoresAllPlansAndValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	mustCreatePlan(t, svc, "2024")
	if err := svc.Plans().SetPlantDate(ctx, domain.AllPlans(), "p1", "not a date"); err != nil {
		t.Fatalf("all-plans date should be a no-op, got %v", err)
	}
	if err := svc.Plans().SetPlantDate(ctx, domain.SelectPlan("2024"), "p1", "2024-13-01"); !domain.IsValidation(err) {
		t.Fatalf("bad date = %v", err)
	}
}

func TestYearPlanExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	exports := blob.NewMemory()
	src := newTestService(t, WithExportStore(exports))
	bed := mustCreateBed(t, src, "B1")
	mustCreatePlan(t, src, "Sommar")
	mustToggle(t, src, "Sommar", bed.ID, "p1")

	info, err := src.Plans().Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(info.Key, "exports/yearplans-2024-03-14") {
		t.Fatalf("export key = %s", info.Key)
	}
	single, err := src.Plans().ExportPlan(ctx, "Sommar")
	if err != nil {
		t.Fatalf("export plan: %v", err)
	}
	if !strings.HasPrefix(single.Key, "exports/yearplan-sommar-") {
		t.Fatalf("single export key = %s", single.Key)
	}

	data, err := blob.ReadAll(ctx, exports, info.Key)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	dst := newTestService(t)
	n, err := dst.Plans().Import(ctx, strings.NewReader(string(data)))
	if err != nil || n != 1 {
		t.Fatalf("import = %d, %v", n, err)
	}
	got, _ := dst.Plans().Plan("Sommar")
	if !got.InBed(bed.ID, "p1") {
		t.Fatalf("imported plan lost assignment: %+v", got)
	}

	one, err := blob.ReadAll(ctx, exports, single.Key)
	if err != nil {
		t.Fatalf("read single: %v", err)
	}
	if n, err := dst.Plans().Import(ctx, strings.NewReader(string(one))); err != nil || n != 1 {
		t.Fatalf("single import = %d, %v", n, err)
	}
}

func TestRegistriesRefuseWritesBeforeLoad(t *testing.T) {
	ctx := context.Background()
	seed := map[string]string{
		domain.KeyYearPlans: `{"plans": {"2023": {"bedPlants": {"1": ["p1"]}}}, "activePlan": "2023"}`,
		domain.KeyBeds:      `[{"id": 1, "name": "B1", "width": 1, "length": 2}]`,
		domain.KeyGardens:   `{"gardens": {"Täppan": {"width": 2, "height": 2}}}`,
		domain.KeyDesigns:   `{"designs": {"Skiss": {"orientation": "landscape"}}}`,
	}
	kv := memory.NewStoreWithData(seed)
	svc := NewService(kv, WithClock(newStepClock()), WithConfirmer(AlwaysConfirm()))

	if svc.Plans().Loaded() {
		t.Fatalf("plans report loaded before Load")
	}
	writes := map[string]func() error{
		domain.KeyYearPlans: func() error { _, err := svc.Plans().CreatePlan(ctx, "2024"); return err },
		domain.KeyBeds:      func() error { _, err := svc.Beds().Create(ctx, BedInput{Name: "B2", Width: 1, Length: 1}); return err },
		domain.KeyGardens:   func() error { _, err := svc.Gardens().Create(ctx, GardenInput{Name: "Ny", Width: 2, Height: 2}); return err },
		domain.KeyDesigns:   func() error { _, err := svc.Designs().Create(ctx, "Ny", ""); return err },
	}
	for key, write := range writes {
		if err := write(); !errors.Is(err, domain.ErrNotLoaded) {
			t.Fatalf("%s: write before load returned %v", key, err)
		}
		raw, _, _ := kv.Get(ctx, key)
		if string(raw) != seed[key] {
			t.Fatalf("%s: early write replaced stored value with %s", key, raw)
		}
	}

	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	mustCreatePlan(t, svc, "2024")
	if diff := cmp.Diff([]string{"2023", "2024"}, svc.Plans().Names()); diff != "" {
		t.Fatalf("plans after load (-want +got):\n%s", diff)
	}
	reloaded := newTestServiceWithStore(t, kv)
	if _, ok := reloaded.Plans().Plan("2023"); !ok {
		t.Fatalf("saved plan lost: %v", reloaded.Plans().Names())
	}
}
