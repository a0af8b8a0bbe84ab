package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gardenplanner/internal/blob"
	"gardenplanner/internal/infra/persistence/memory"
	"gardenplanner/pkg/domain"
)

// Service ties the catalog, the user registries and the derived views
// together over one key-value store.
type Service struct {
	rt        *runtime
	kv        domain.KeyValueStore
	favorites *Favorites
	beds      *BedRegistry
	plans     *YearPlanRegistry
	gardens   *GardenRegistry
	designs   *DesignRegistry

	catalogMu sync.RWMutex
	catalog   *Catalog
}

// NewService builds a service over kv. Registries start empty until Load.
func NewService(kv domain.KeyValueStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.feed == nil {
		o.feed = NewChangeFeed()
	}
	if o.exports == nil {
		o.exports = blob.NewMemory()
	}
	rt := &runtime{
		state:     NewStateStore(kv, o.logger),
		clock:     o.clock,
		logger:    o.logger,
		audit:     o.audit,
		metrics:   o.metrics,
		tracer:    o.tracer,
		confirmer: o.confirmer,
		feed:      o.feed,
		exports:   o.exports,
	}
	return &Service{
		rt:        rt,
		kv:        kv,
		favorites: newFavorites(rt),
		beds:      newBedRegistry(rt),
		plans:     newYearPlanRegistry(rt),
		gardens:   newGardenRegistry(rt),
		designs:   newDesignRegistry(rt),
		catalog:   NewCatalog(nil),
	}
}

// NewInMemoryService returns a service backed by a fresh in-memory store.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Load reads every registry from the store. Corrupt values load as empty;
// only backend failures are returned.
func (s *Service) Load(ctx context.Context) error {
	return errors.Join(
		s.favorites.Load(ctx),
		s.beds.Load(ctx),
		s.plans.Load(ctx),
		s.gardens.Load(ctx),
		s.designs.Load(ctx),
	)
}

// Close releases the store.
func (s *Service) Close() error { return s.kv.Close() }

func (s *Service) Favorites() *Favorites       { return s.favorites }
func (s *Service) Beds() *BedRegistry          { return s.beds }
func (s *Service) Plans() *YearPlanRegistry    { return s.plans }
func (s *Service) Gardens() *GardenRegistry    { return s.gardens }
func (s *Service) Designs() *DesignRegistry    { return s.designs }
func (s *Service) Feed() *ChangeFeed           { return s.rt.feed }
func (s *Service) Exports() blob.Store         { return s.rt.exports }
func (s *Service) Store() domain.KeyValueStore { return s.kv }

// Catalog returns the current plant catalog.
func (s *Service) Catalog() *Catalog {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.catalog
}

// SetCatalog replaces the catalog.
func (s *Service) SetCatalog(c *Catalog) {
	if c == nil {
		c = NewCatalog(nil)
	}
	s.catalogMu.Lock()
	s.catalog = c
	s.catalogMu.Unlock()
}

// LoadCatalog fetches the catalog from src and installs it. A failure keeps
// the previous catalog.
func (s *Service) LoadCatalog(ctx context.Context, src CatalogSource) error {
	return s.rt.run(ctx, "load_catalog", func(ctx context.Context) (string, error) {
		c, err := LoadCatalog(ctx, src, s.rt.logger)
		if err != nil {
			return src.Name(), err
		}
		s.SetCatalog(c)
		return src.Name(), nil
	})
}

// FilterPlants applies f to the catalog using current favorites and plans.
func (s *Service) FilterPlants(f Filter) []domain.Plant {
	return FilterPlants(s.Catalog(), f, s.favorites.Set(), s.plans)
}

// Browse filters the catalog and groups the result.
func (s *Service) Browse(f Filter, mode domain.GroupMode) ([]PlantGroup, error) {
	return GroupPlants(s.FilterPlants(f), mode, f.Selection, s.plans, s.beds.List())
}

// Calendar returns the month calendar of the plants matching f.
func (s *Service) Calendar(f Filter) []MonthRow {
	return MonthCalendar(s.FilterPlants(f))
}

// PlannerRow is one line of the year planner table.
type PlannerRow struct {
	PlantID       string
	Name          string
	Known         bool
	BedIDs        []int64
	PlantDate     string
	HarvestedDate string
}

// PlannerRows lists every plant of the named plan ordered by key. Plants that
// are no longer in the catalog are kept with their id as name.
func (s *Service) PlannerRows(planName string, key domain.SortKey) ([]PlannerRow, error) {
	plan, ok := s.plans.Plan(planName)
	if !ok {
		return nil, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: planName}
	}
	catalog := s.Catalog()
	ids := SortPlanPlants(plan.PlantIDs(), key, catalog, plan)
	rows := make([]PlannerRow, 0, len(ids))
	for _, id := range ids {
		_, known := catalog.Lookup(id)
		rows = append(rows, PlannerRow{
			PlantID:       id,
			Name:          catalog.DisplayName(id),
			Known:         known,
			BedIDs:        plan.BedsFor(id),
			PlantDate:     plan.PlantDates[id],
			HarvestedDate: plan.HarvestedDates[id],
		})
	}
	return rows, nil
}

// PlaceSavedBed copies a registry bed into a design at x, y.
func (s *Service) PlaceSavedBed(ctx context.Context, design string, bedID int64, x, y float64) (domain.PlacedBed, error) {
	bed, ok := s.beds.Get(bedID)
	if !ok {
		return domain.PlacedBed{}, domain.ErrNotFound{Entity: domain.EntityBed, ID: bedKey(bedID)}
	}
	return s.designs.AddSavedBed(ctx, design, bed, x, y)
}

// FollowExternal reloads the affected registry whenever the feed reports a
// change made outside this process. It blocks until ctx is done.
func (s *Service) FollowExternal(ctx context.Context) error {
	events, cancel := s.rt.feed.Subscribe(0)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.External {
				continue
			}
			if err := s.reloadKey(ctx, ev.Key); err != nil {
				s.rt.logger.Warn("reload after external change failed", "key", ev.Key, "error", err)
			}
		}
	}
}

func (s *Service) reloadKey(ctx context.Context, key string) error {
	switch key {
	case domain.KeyFavorites:
		return s.favorites.Load(ctx)
	case domain.KeyBeds:
		return s.beds.Load(ctx)
	case domain.KeyYearPlans:
		return s.plans.Load(ctx)
	case domain.KeyGardens:
		return s.gardens.Load(ctx)
	case domain.KeyDesigns:
		return s.designs.Load(ctx)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
}
