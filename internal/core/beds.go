package core

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

// BedInput carries the user-editable fields of a bed.
type BedInput struct {
	Name        string
	Width       float64
	Length      float64
	Description string
	Plants      []string
}

// BedRegistry owns the saved beds (key myGardenBeds). Year plans and visual
// designs reference beds by id; deleting a bed never touches them.
type BedRegistry struct {
	rt     *runtime
	mu     sync.RWMutex
	beds   []domain.Bed
	loaded bool
}

func newBedRegistry(rt *runtime) *BedRegistry {
	return &BedRegistry{rt: rt}
}

// Load replaces the registry with the stored list. A corrupt value loads as
// an empty list.
func (r *BedRegistry) Load(ctx context.Context) error {
	return r.rt.run(ctx, "load_beds", func(ctx context.Context) (string, error) {
		beds, err := r.rt.state.LoadBeds(ctx)
		if err != nil {
			return domain.KeyBeds, err
		}
		r.mu.Lock()
		r.beds = beds
		r.loaded = true
		r.mu.Unlock()
		return domain.KeyBeds, nil
	})
}

func validateBed(in BedInput) (BedInput, error) {
	name, err := domain.RequireName("name", in.Name)
	if err != nil {
		return in, err
	}
	if err := domain.RequireDimension("width", in.Width); err != nil {
		return in, err
	}
	if err := domain.RequireDimension("length", in.Length); err != nil {
		return in, err
	}
	in.Name = name
	in.Description = strings.TrimSpace(in.Description)
	plants := make([]string, 0, len(in.Plants))
	for _, p := range in.Plants {
		if p = strings.TrimSpace(p); p != "" {
			plants = append(plants, p)
		}
	}
	in.Plants = plants
	return in, nil
}

// Create validates in and appends a new bed. The id is the current time in
// milliseconds, bumped past the largest existing id when needed.
func (r *BedRegistry) Create(ctx context.Context, in BedInput) (domain.Bed, error) {
	var created domain.Bed
	err := r.rt.run(ctx, "create_bed", func(ctx context.Context) (string, error) {
		valid, err := validateBed(in)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		now := r.rt.now()
		id := now.UnixMilli()
		for _, b := range r.beds {
			if b.ID >= id {
				id = b.ID + 1
			}
		}
		created = domain.Bed{
			ID:          id,
			Name:        valid.Name,
			Width:       valid.Width,
			Length:      valid.Length,
			Description: valid.Description,
			Plants:      valid.Plants,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		next := append(r.cloneBeds(), created)
		if err := r.commit(ctx, next); err != nil {
			return bedKey(id), err
		}
		return bedKey(id), nil
	})
	if err != nil {
		return domain.Bed{}, err
	}
	return domain.CloneBed(created), nil
}

// Update applies mutate to a copy of the bed, re-validates it and saves it.
// The id and creation time cannot change.
func (r *BedRegistry) Update(ctx context.Context, id int64, mutate func(*domain.Bed) error) (domain.Bed, error) {
	var updated domain.Bed
	err := r.rt.run(ctx, "update_bed", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		idx := r.indexOf(id)
		if idx < 0 {
			return bedKey(id), domain.ErrNotFound{Entity: domain.EntityBed, ID: bedKey(id)}
		}
		candidate := domain.CloneBed(r.beds[idx])
		if err := mutate(&candidate); err != nil {
			return bedKey(id), err
		}
		valid, err := validateBed(BedInput{
			Name:        candidate.Name,
			Width:       candidate.Width,
			Length:      candidate.Length,
			Description: candidate.Description,
			Plants:      candidate.Plants,
		})
		if err != nil {
			return bedKey(id), err
		}
		original := r.beds[idx]
		updated = domain.Bed{
			ID:          original.ID,
			Name:        valid.Name,
			Width:       valid.Width,
			Length:      valid.Length,
			Description: valid.Description,
			Plants:      valid.Plants,
			CreatedAt:   original.CreatedAt,
			UpdatedAt:   r.rt.now(),
		}
		next := r.cloneBeds()
		next[idx] = updated
		return bedKey(id), r.commit(ctx, next)
	})
	if err != nil {
		return domain.Bed{}, err
	}
	return domain.CloneBed(updated), nil
}

// Delete removes a bed after confirmation. Plans keep their now orphaned
// references.
func (r *BedRegistry) Delete(ctx context.Context, id int64) error {
	return r.rt.run(ctx, "delete_bed", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		idx := r.indexOf(id)
		if idx < 0 {
			return bedKey(id), domain.ErrNotFound{Entity: domain.EntityBed, ID: bedKey(id)}
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Delete bed %q?", r.beds[idx].Name)); err != nil {
			return bedKey(id), err
		}
		next := r.cloneBeds()
		next = slices.Delete(next, idx, idx+1)
		return bedKey(id), r.commit(ctx, next)
	})
}

// Get returns the bed with id.
func (r *BedRegistry) Get(id int64) (domain.Bed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return domain.Bed{}, false
	}
	return domain.CloneBed(r.beds[idx]), true
}

// List returns the beds in registry order.
func (r *BedRegistry) List() []domain.Bed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloneBeds()
}

// Export writes every bed to a dated JSON file.
func (r *BedRegistry) Export(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_beds", func(ctx context.Context) (string, error) {
		var err error
		info, err = r.rt.export(ctx, "beds", r.List())
		return info.Key, err
	})
	return info, err
}

// Import appends the beds of a JSON array file after confirmation. Entries
// are kept verbatim: ids and names are not de-duplicated. It returns how
// many beds were added.
func (r *BedRegistry) Import(ctx context.Context, src io.Reader) (int, error) {
	var added int
	err := r.rt.run(ctx, "import_beds", func(ctx context.Context) (string, error) {
		imported, err := decodeImport[[]domain.Bed](src)
		if err != nil {
			return "", err
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Import %d beds into the existing list?", len(imported))); err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		next := append(r.cloneBeds(), normalizeBeds(imported)...)
		if err := r.commit(ctx, next); err != nil {
			return "", err
		}
		added = len(imported)
		return strconv.Itoa(added), nil
	})
	return added, err
}

// commit persists next and swaps it in. Callers hold r.mu.
func (r *BedRegistry) commit(ctx context.Context, next []domain.Bed) error {
	if !r.loaded {
		return fmt.Errorf("%s: %w", domain.KeyBeds, domain.ErrNotLoaded)
	}
	if err := r.rt.state.SaveBeds(ctx, next); err != nil {
		return err
	}
	r.beds = next
	r.rt.changed(domain.KeyBeds)
	return nil
}

func (r *BedRegistry) cloneBeds() []domain.Bed {
	out := make([]domain.Bed, len(r.beds))
	for i, b := range r.beds {
		out[i] = domain.CloneBed(b)
	}
	return out
}

func (r *BedRegistry) indexOf(id int64) int {
	for i, b := range r.beds {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func bedKey(id int64) string { return strconv.FormatInt(id, 10) }
