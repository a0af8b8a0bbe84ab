package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

const (
	// DefaultCellSize is the on-screen cell size used when none is given.
	DefaultCellSize = 40
	// MaxGridSide bounds garden width and height in cells.
	MaxGridSide = 500
)

// GardenInput describes a new garden grid.
type GardenInput struct {
	Name     string
	Width    int
	Height   int
	CellSize int
}

// GardenRegistry owns the grid-of-cells garden maps (key gardensData).
type GardenRegistry struct {
	rt     *runtime
	mu     sync.RWMutex
	state  domain.GardensState
	loaded bool
}

func newGardenRegistry(rt *runtime) *GardenRegistry {
	return &GardenRegistry{rt: rt, state: domain.GardensState{Gardens: map[string]domain.GardenGrid{}}}
}

// Load replaces the registry with the stored state.
func (r *GardenRegistry) Load(ctx context.Context) error {
	return r.rt.run(ctx, "load_gardens", func(ctx context.Context) (string, error) {
		state, err := r.rt.state.LoadGardens(ctx)
		if err != nil {
			return domain.KeyGardens, err
		}
		r.mu.Lock()
		r.state = state
		r.loaded = true
		r.mu.Unlock()
		return domain.KeyGardens, nil
	})
}

func validateGridSize(width, height int) error {
	if width < 1 || width > MaxGridSide {
		return &domain.ValidationError{Field: "width", Reason: fmt.Sprintf("must be between 1 and %d", MaxGridSide)}
	}
	if height < 1 || height > MaxGridSide {
		return &domain.ValidationError{Field: "height", Reason: fmt.Sprintf("must be between 1 and %d", MaxGridSide)}
	}
	return nil
}

// Create adds an empty garden and makes it active.
func (r *GardenRegistry) Create(ctx context.Context, in GardenInput) (domain.GardenGrid, error) {
	var created domain.GardenGrid
	err := r.rt.run(ctx, "create_garden", func(ctx context.Context) (string, error) {
		name, err := domain.RequireName("name", in.Name)
		if err != nil {
			return in.Name, err
		}
		if err := validateGridSize(in.Width, in.Height); err != nil {
			return name, err
		}
		cellSize := in.CellSize
		if cellSize == 0 {
			cellSize = DefaultCellSize
		}
		if cellSize < 0 {
			return name, &domain.ValidationError{Field: "cell_size", Reason: "must be greater than zero"}
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, exists := r.state.Gardens[name]; exists {
			return name, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("garden %q already exists", name)}
		}
		created = fitGrid(domain.GardenGrid{
			Name:     name,
			Width:    in.Width,
			Height:   in.Height,
			CellSize: cellSize,
			SavedAt:  r.rt.now(),
		})
		next := r.cloneState()
		next.Gardens[name] = created
		next.ActiveGarden = &name
		return name, r.commit(ctx, next)
	})
	if err != nil {
		return domain.GardenGrid{}, err
	}
	return domain.CloneGardenGrid(created), nil
}

// SetCell plants cell at column x, row y.
func (r *GardenRegistry) SetCell(ctx context.Context, garden string, x, y int, cell domain.Cell) error {
	return r.rt.run(ctx, "set_garden_cell", func(ctx context.Context) (string, error) {
		name, err := domain.RequireName("cell.name", cell.Name)
		if err != nil {
			return garden, err
		}
		cell.Name = name
		cell.Color = strings.TrimSpace(cell.Color)
		if strings.TrimSpace(cell.PlantedAt) != "" {
			if cell.PlantedAt, err = domain.RequireDate("cell.plantedAt", cell.PlantedAt); err != nil {
				return garden, err
			}
		}
		return garden, r.mutate(ctx, garden, func(g *domain.GardenGrid) error {
			if err := checkCell(*g, x, y); err != nil {
				return err
			}
			c := cell
			g.Grid[y][x] = &c
			return nil
		})
	})
}

// ClearCell empties the cell at column x, row y.
func (r *GardenRegistry) ClearCell(ctx context.Context, garden string, x, y int) error {
	return r.rt.run(ctx, "clear_garden_cell", func(ctx context.Context) (string, error) {
		return garden, r.mutate(ctx, garden, func(g *domain.GardenGrid) error {
			if err := checkCell(*g, x, y); err != nil {
				return err
			}
			g.Grid[y][x] = nil
			return nil
		})
	})
}

// Resize changes the grid dimensions, keeping every cell inside the new
// bounds.
func (r *GardenRegistry) Resize(ctx context.Context, garden string, width, height int) error {
	return r.rt.run(ctx, "resize_garden", func(ctx context.Context) (string, error) {
		if err := validateGridSize(width, height); err != nil {
			return garden, err
		}
		return garden, r.mutate(ctx, garden, func(g *domain.GardenGrid) error {
			g.Width, g.Height = width, height
			*g = fitGrid(*g)
			return nil
		})
	})
}

// Delete removes a garden after confirmation. When it was active, the first
// remaining garden by name becomes active, or none.
func (r *GardenRegistry) Delete(ctx context.Context, name string) error {
	return r.rt.run(ctx, "delete_garden", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.state.Gardens[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityGarden, ID: name}
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Delete garden %q?", name)); err != nil {
			return name, err
		}
		next := r.cloneState()
		delete(next.Gardens, name)
		if next.ActiveGarden != nil && *next.ActiveGarden == name {
			next.ActiveGarden = nil
			if names := sortedNames(next.Gardens); len(names) > 0 {
				next.ActiveGarden = &names[0]
			}
		}
		return name, r.commit(ctx, next)
	})
}

// SetActive selects the active garden; an empty name clears it.
func (r *GardenRegistry) SetActive(ctx context.Context, name string) error {
	return r.rt.run(ctx, "set_active_garden", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		if name == "" {
			next.ActiveGarden = nil
			return "", r.commit(ctx, next)
		}
		if _, ok := next.Gardens[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityGarden, ID: name}
		}
		next.ActiveGarden = &name
		return name, r.commit(ctx, next)
	})
}

// Active returns the active garden name.
func (r *GardenRegistry) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.ActiveGarden == nil {
		return "", false
	}
	return *r.state.ActiveGarden, true
}

// Get returns a copy of the named garden.
func (r *GardenRegistry) Get(name string) (domain.GardenGrid, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.state.Gardens[name]
	if !ok {
		return domain.GardenGrid{}, false
	}
	return domain.CloneGardenGrid(g), true
}

// Names returns garden names in collation order.
func (r *GardenRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.state.Gardens)
}

// State returns a deep copy of the registry state.
func (r *GardenRegistry) State() domain.GardensState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloneState()
}

// Export writes every garden to a dated JSON file.
func (r *GardenRegistry) Export(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_gardens", func(ctx context.Context) (string, error) {
		var err error
		info, err = r.rt.export(ctx, "gardens", r.State())
		return info.Key, err
	})
	return info, err
}

// ExportGarden writes one garden to a dated JSON file.
func (r *GardenRegistry) ExportGarden(ctx context.Context, name string) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_garden", func(ctx context.Context) (string, error) {
		g, ok := r.Get(name)
		if !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityGarden, ID: name}
		}
		var err error
		info, err = r.rt.export(ctx, "garden-"+exportSlug(name), g)
		return name, err
	})
	return info, err
}

// Import reads a registry or single garden export and, after confirmation,
// replaces gardens with the same name.
func (r *GardenRegistry) Import(ctx context.Context, src io.Reader) (int, error) {
	var count int
	err := r.rt.run(ctx, "import_gardens", func(ctx context.Context) (string, error) {
		doc, err := decodeImport[map[string]json.RawMessage](src)
		if err != nil {
			return "", err
		}
		gardens, err := recordsFromImport(doc, "gardens", func(g domain.GardenGrid) string { return g.Name })
		if err != nil {
			return "", err
		}
		for name, g := range gardens {
			if err := validateGridSize(g.Width, g.Height); err != nil {
				return name, &domain.ImportError{Err: fmt.Errorf("garden %q: %w", name, err)}
			}
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Import %d gardens, replacing gardens with the same name?", len(gardens))); err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		for name, g := range gardens {
			g = domain.CloneGardenGrid(g)
			g.Name = name
			if g.CellSize <= 0 {
				g.CellSize = DefaultCellSize
			}
			next.Gardens[name] = fitGrid(g)
		}
		if err := r.commit(ctx, next); err != nil {
			return "", err
		}
		count = len(gardens)
		return strconv.Itoa(count), nil
	})
	return count, err
}

// mutate applies fn to a copy of the named garden and saves it.
func (r *GardenRegistry) mutate(ctx context.Context, name string, fn func(*domain.GardenGrid) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.state.Gardens[name]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityGarden, ID: name}
	}
	g = domain.CloneGardenGrid(g)
	if err := fn(&g); err != nil {
		return err
	}
	g.SavedAt = r.rt.now()
	next := r.cloneState()
	next.Gardens[name] = g
	return r.commit(ctx, next)
}

// commit persists next and swaps it in. Callers hold r.mu.
func (r *GardenRegistry) commit(ctx context.Context, next domain.GardensState) error {
	if !r.loaded {
		return fmt.Errorf("%s: %w", domain.KeyGardens, domain.ErrNotLoaded)
	}
	if err := r.rt.state.SaveGardens(ctx, next); err != nil {
		return err
	}
	r.state = next
	r.rt.changed(domain.KeyGardens)
	return nil
}

func (r *GardenRegistry) cloneState() domain.GardensState {
	out := domain.GardensState{Gardens: make(map[string]domain.GardenGrid, len(r.state.Gardens))}
	for name, g := range r.state.Gardens {
		out.Gardens[name] = domain.CloneGardenGrid(g)
	}
	if r.state.ActiveGarden != nil {
		active := *r.state.ActiveGarden
		out.ActiveGarden = &active
	}
	return out
}

func checkCell(g domain.GardenGrid, x, y int) error {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return &domain.ValidationError{Field: "cell", Reason: fmt.Sprintf("(%d,%d) outside %dx%d grid", x, y, g.Width, g.Height)}
	}
	return nil
}

// fitGrid returns g with Grid shaped to exactly Height rows of Width cells.
// Cells outside the bounds are dropped and missing cells are empty.
func fitGrid(g domain.GardenGrid) domain.GardenGrid {
	if g.Width < 0 {
		g.Width = 0
	}
	if g.Height < 0 {
		g.Height = 0
	}
	grid := make([][]*domain.Cell, g.Height)
	for y := range grid {
		row := make([]*domain.Cell, g.Width)
		if y < len(g.Grid) {
			copy(row, g.Grid[y])
		}
		grid[y] = row
	}
	g.Grid = grid
	return g
}
