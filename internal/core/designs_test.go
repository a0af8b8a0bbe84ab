package core

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

func TestDesignPlacementLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.Designs().Create(ctx, "Skiss", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if d, _ := svc.Designs().Get("Skiss"); d.Orientation != domain.OrientationPortrait {
		t.Fatalf("default orientation = %q", d.Orientation)
	}
	if _, err := svc.Designs().Create(ctx, "Fel", "diagonal"); !domain.IsValidation(err) {
		t.Fatalf("bad orientation = %v", err)
	}

	free, err := svc.Designs().AddBed(ctx, "Skiss", PlacedBedInput{Name: "Rabatt", X: 10, Y: 20, Width: 100, Height: 50})
	if err != nil {
		t.Fatalf("add bed: %v", err)
	}
	if _, err := uuid.Parse(free.ID); err != nil {
		t.Fatalf("placed id %q is not a uuid", free.ID)
	}
	if free.SavedBedID != nil {
		t.Fatalf("free bed linked to %d", *free.SavedBedID)
	}

	saved := mustCreateBed(t, svc, "Pallkrage")
	linked, err := svc.PlaceSavedBed(ctx, "Skiss", saved.ID, 5, 5)
	if err != nil {
		t.Fatalf("place saved bed: %v", err)
	}
	if linked.Name != "Pallkrage" || linked.Width != saved.Width || linked.Height != saved.Length {
		t.Fatalf("copied bed = %+v", linked)
	}
	if linked.SavedBedID == nil || *linked.SavedBedID != saved.ID {
		t.Fatalf("link = %v", linked.SavedBedID)
	}

	if err := svc.Designs().MoveBed(ctx, "Skiss", free.ID, 30, 40); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := svc.Designs().ResizeBed(ctx, "Skiss", free.ID, 80, 0); !domain.IsValidation(err) {
		t.Fatalf("zero height = %v", err)
	}
	if err := svc.Designs().SetOrientation(ctx, "Skiss", domain.OrientationLandscape); err != nil {
		t.Fatalf("orientation: %v", err)
	}
	d, _ := svc.Designs().Get("Skiss")
	if d.Beds[0].X != 30 || d.Beds[0].Y != 40 || d.Beds[0].Height != 50 || d.Orientation != domain.OrientationLandscape {
		t.Fatalf("design = %+v", d)
	}

	// Deleting the registry bed leaves the copy in place.
	if err := svc.Beds().Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete bed: %v", err)
	}
	if err := svc.Designs().RemoveBed(ctx, "Skiss", free.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Designs().RemoveBed(ctx, "Skiss", free.ID); !domain.IsNotFound(err) {
		t.Fatalf("second remove = %v", err)
	}
	d, _ = svc.Designs().Get("Skiss")
	if len(d.Beds) != 1 || d.Beds[0].ID != linked.ID {
		t.Fatalf("remaining beds = %+v", d.Beds)
	}
	if _, err := svc.PlaceSavedBed(ctx, "Skiss", saved.ID, 0, 0); !domain.IsNotFound(err) {
		t.Fatalf("deleted bed placement = %v", err)
	}
}

func TestDesignExportImport(t *testing.T) {
	ctx := context.Background()
	exports := blob.NewMemory()
	src := newTestService(t, WithExportStore(exports))
	if _, err := src.Designs().Create(ctx, "Framsida", domain.OrientationLandscape); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := src.Designs().AddBed(ctx, "Framsida", PlacedBedInput{Name: "A", Width: 1, Height: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	info, err := src.Designs().Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := blob.ReadAll(ctx, exports, info.Key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := newTestService(t)
	if n, err := dst.Designs().Import(ctx, strings.NewReader(string(data))); err != nil || n != 1 {
		t.Fatalf("import = %d, %v", n, err)
	}
	d, ok := dst.Designs().Get("Framsida")
	if !ok || len(d.Beds) != 1 || d.Orientation != domain.OrientationLandscape {
		t.Fatalf("imported design = %+v", d)
	}
	if _, ok := dst.Designs().Active(); ok {
		t.Fatalf("import should not change the active design")
	}
}
