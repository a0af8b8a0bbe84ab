package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

// PlacedBedInput positions a rectangle in a design.
type PlacedBedInput struct {
	Name   string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DesignRegistry owns the freeform visual designs (key visualDesigns).
type DesignRegistry struct {
	rt     *runtime
	mu     sync.RWMutex
	state  domain.DesignsState
	loaded bool
}

func newDesignRegistry(rt *runtime) *DesignRegistry {
	return &DesignRegistry{rt: rt, state: domain.DesignsState{Designs: map[string]domain.VisualDesign{}}}
}

// Load replaces the registry with the stored state.
func (r *DesignRegistry) Load(ctx context.Context) error {
	return r.rt.run(ctx, "load_designs", func(ctx context.Context) (string, error) {
		state, err := r.rt.state.LoadDesigns(ctx)
		if err != nil {
			return domain.KeyDesigns, err
		}
		r.mu.Lock()
		r.state = state
		r.loaded = true
		r.mu.Unlock()
		return domain.KeyDesigns, nil
	})
}

// Create adds an empty design and makes it active. A blank orientation
// means portrait.
func (r *DesignRegistry) Create(ctx context.Context, name string, orientation domain.Orientation) (domain.VisualDesign, error) {
	var created domain.VisualDesign
	err := r.rt.run(ctx, "create_design", func(ctx context.Context) (string, error) {
		trimmed, err := domain.RequireName("name", name)
		if err != nil {
			return name, err
		}
		if orientation == "" {
			orientation = domain.OrientationPortrait
		}
		if !orientation.Valid() {
			return trimmed, &domain.ValidationError{Field: "orientation", Reason: fmt.Sprintf("unknown orientation %q", orientation)}
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, exists := r.state.Designs[trimmed]; exists {
			return trimmed, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("design %q already exists", trimmed)}
		}
		now := r.rt.now()
		created = domain.VisualDesign{
			Name:        trimmed,
			Beds:        []domain.PlacedBed{},
			Orientation: orientation,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		next := r.cloneState()
		next.Designs[trimmed] = created
		next.ActiveDesign = &trimmed
		return trimmed, r.commit(ctx, next)
	})
	if err != nil {
		return domain.VisualDesign{}, err
	}
	return domain.CloneVisualDesign(created), nil
}

func validatePlacement(in PlacedBedInput) (PlacedBedInput, error) {
	name, err := domain.RequireName("name", in.Name)
	if err != nil {
		return in, err
	}
	in.Name = name
	if err := domain.RequireDimension("width", in.Width); err != nil {
		return in, err
	}
	if err := domain.RequireDimension("height", in.Height); err != nil {
		return in, err
	}
	if in.X < 0 || in.Y < 0 {
		return in, &domain.ValidationError{Field: "position", Reason: "must not be negative"}
	}
	return in, nil
}

// AddBed places a new free rectangle in the design.
func (r *DesignRegistry) AddBed(ctx context.Context, design string, in PlacedBedInput) (domain.PlacedBed, error) {
	return r.place(ctx, "add_design_bed", design, in, nil)
}

// AddSavedBed places a copy of a registry bed at x, y. Name and dimensions
// are copied once; the link back to the bed is advisory.
func (r *DesignRegistry) AddSavedBed(ctx context.Context, design string, bed domain.Bed, x, y float64) (domain.PlacedBed, error) {
	id := bed.ID
	return r.place(ctx, "add_saved_design_bed", design, PlacedBedInput{
		Name:   bed.Name,
		X:      x,
		Y:      y,
		Width:  bed.Width,
		Height: bed.Length,
	}, &id)
}

func (r *DesignRegistry) place(ctx context.Context, op, design string, in PlacedBedInput, savedBedID *int64) (domain.PlacedBed, error) {
	var placed domain.PlacedBed
	err := r.rt.run(ctx, op, func(ctx context.Context) (string, error) {
		valid, err := validatePlacement(in)
		if err != nil {
			return design, err
		}
		placed = domain.PlacedBed{
			ID:         uuid.NewString(),
			Name:       valid.Name,
			X:          valid.X,
			Y:          valid.Y,
			Width:      valid.Width,
			Height:     valid.Height,
			SavedBedID: savedBedID,
		}
		return placed.ID, r.mutate(ctx, design, func(d *domain.VisualDesign) error {
			d.Beds = append(d.Beds, placed)
			return nil
		})
	})
	if err != nil {
		return domain.PlacedBed{}, err
	}
	return placed, nil
}

// MoveBed sets the position of a placed bed.
func (r *DesignRegistry) MoveBed(ctx context.Context, design, bedID string, x, y float64) error {
	return r.rt.run(ctx, "move_design_bed", func(ctx context.Context) (string, error) {
		if x < 0 || y < 0 {
			return bedID, &domain.ValidationError{Field: "position", Reason: "must not be negative"}
		}
		return bedID, r.mutateBed(ctx, design, bedID, func(b *domain.PlacedBed) {
			b.X, b.Y = x, y
		})
	})
}

// ResizeBed sets the dimensions of a placed bed.
func (r *DesignRegistry) ResizeBed(ctx context.Context, design, bedID string, width, height float64) error {
	return r.rt.run(ctx, "resize_design_bed", func(ctx context.Context) (string, error) {
		if err := domain.RequireDimension("width", width); err != nil {
			return bedID, err
		}
		if err := domain.RequireDimension("height", height); err != nil {
			return bedID, err
		}
		return bedID, r.mutateBed(ctx, design, bedID, func(b *domain.PlacedBed) {
			b.Width, b.Height = width, height
		})
	})
}

// RemoveBed takes a placed bed out of the design.
func (r *DesignRegistry) RemoveBed(ctx context.Context, design, bedID string) error {
	return r.rt.run(ctx, "remove_design_bed", func(ctx context.Context) (string, error) {
		return bedID, r.mutate(ctx, design, func(d *domain.VisualDesign) error {
			idx := slices.IndexFunc(d.Beds, func(b domain.PlacedBed) bool { return b.ID == bedID })
			if idx < 0 {
				return domain.ErrNotFound{Entity: domain.EntityPlacedBed, ID: bedID}
			}
			d.Beds = slices.Delete(d.Beds, idx, idx+1)
			return nil
		})
	})
}

// SetOrientation switches a design between portrait and landscape.
func (r *DesignRegistry) SetOrientation(ctx context.Context, design string, orientation domain.Orientation) error {
	return r.rt.run(ctx, "set_design_orientation", func(ctx context.Context) (string, error) {
		if !orientation.Valid() {
			return design, &domain.ValidationError{Field: "orientation", Reason: fmt.Sprintf("unknown orientation %q", orientation)}
		}
		return design, r.mutate(ctx, design, func(d *domain.VisualDesign) error {
			d.Orientation = orientation
			return nil
		})
	})
}

// Delete removes a design after confirmation.
func (r *DesignRegistry) Delete(ctx context.Context, name string) error {
	return r.rt.run(ctx, "delete_design", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.state.Designs[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityDesign, ID: name}
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Delete design %q?", name)); err != nil {
			return name, err
		}
		next := r.cloneState()
		delete(next.Designs, name)
		if next.ActiveDesign != nil && *next.ActiveDesign == name {
			next.ActiveDesign = nil
			if names := sortedNames(next.Designs); len(names) > 0 {
				next.ActiveDesign = &names[0]
			}
		}
		return name, r.commit(ctx, next)
	})
}

// SetActive selects the active design; an empty name clears it.
func (r *DesignRegistry) SetActive(ctx context.Context, name string) error {
	return r.rt.run(ctx, "set_active_design", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		if name == "" {
			next.ActiveDesign = nil
			return "", r.commit(ctx, next)
		}
		if _, ok := next.Designs[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityDesign, ID: name}
		}
		next.ActiveDesign = &name
		return name, r.commit(ctx, next)
	})
}

// Active returns the active design name.
func (r *DesignRegistry) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.ActiveDesign == nil {
		return "", false
	}
	return *r.state.ActiveDesign, true
}

// Get returns a copy of the named design.
func (r *DesignRegistry) Get(name string) (domain.VisualDesign, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.state.Designs[name]
	if !ok {
		return domain.VisualDesign{}, false
	}
	return domain.CloneVisualDesign(d), true
}

func (r *DesignRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.state.Designs)
}

func (r *DesignRegistry) State() domain.DesignsState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloneState()
}

// Export writes every design to a dated JSON file.
func (r *DesignRegistry) Export(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_designs", func(ctx context.Context) (string, error) {
		var err error
		info, err = r.rt.export(ctx, "designs", r.State())
		return info.Key, err
	})
	return info, err
}

// Import reads a registry or single design export and, after confirmation,
// replaces designs with the same name.
func (r *DesignRegistry) Import(ctx context.Context, src io.Reader) (int, error) {
	var count int
	err := r.rt.run(ctx, "import_designs", func(ctx context.Context) (string, error) {
		doc, err := decodeImport[map[string]json.RawMessage](src)
		if err != nil {
			return "", err
		}
		designs, err := recordsFromImport(doc, "designs", func(d domain.VisualDesign) string { return d.Name })
		if err != nil {
			return "", err
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Import %d designs, replacing designs with the same name?", len(designs))); err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		imported := normalizeDesigns(domain.DesignsState{Designs: designs})
		for name, d := range imported.Designs {
			if d.Beds == nil {
				d.Beds = []domain.PlacedBed{}
			}
			next.Designs[name] = d
		}
		if err := r.commit(ctx, next); err != nil {
			return "", err
		}
		count = len(designs)
		return strconv.Itoa(count), nil
	})
	return count, err
}

func (r *DesignRegistry) mutate(ctx context.Context, name string, fn func(*domain.VisualDesign) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.state.Designs[name]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityDesign, ID: name}
	}
	d = domain.CloneVisualDesign(d)
	if err := fn(&d); err != nil {
		return err
	}
	d.UpdatedAt = r.rt.now()
	next := r.cloneState()
	next.Designs[name] = d
	return r.commit(ctx, next)
}

func (r *DesignRegistry) mutateBed(ctx context.Context, design, bedID string, fn func(*domain.PlacedBed)) error {
	return r.mutate(ctx, design, func(d *domain.VisualDesign) error {
		for i := range d.Beds {
			if d.Beds[i].ID == bedID {
				fn(&d.Beds[i])
				return nil
			}
		}
		return domain.ErrNotFound{Entity: domain.EntityPlacedBed, ID: bedID}
	})
}

// commit persists next and swaps it in. Callers hold r.mu.
func (r *DesignRegistry) commit(ctx context.Context, next domain.DesignsState) error {
	if !r.loaded {
		return fmt.Errorf("%s: %w", domain.KeyDesigns, domain.ErrNotLoaded)
	}
	if err := r.rt.state.SaveDesigns(ctx, next); err != nil {
		return err
	}
	r.state = next
	r.rt.changed(domain.KeyDesigns)
	return nil
}

func (r *DesignRegistry) cloneState() domain.DesignsState {
	out := domain.DesignsState{Designs: make(map[string]domain.VisualDesign, len(r.state.Designs))}
	for name, d := range r.state.Designs {
		out.Designs[name] = domain.CloneVisualDesign(d)
	}
	if r.state.ActiveDesign != nil {
		active := *r.state.ActiveDesign
		out.ActiveDesign = &active
	}
	return out
}
