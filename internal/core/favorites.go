package core

import (
	"context"
	"sync"

	"gardenplanner/pkg/domain"
)

// Favorites is the "my plants" set. Writes to storage are gated on the
// manager's own loaded flag: until Load has finished, toggles only change
// memory so an early toggle can never clobber the saved set.
type Favorites struct {
	rt     *runtime
	mu     sync.RWMutex
	set    domain.FavoriteSet
	loaded bool
}

func newFavorites(rt *runtime) *Favorites {
	return &Favorites{rt: rt, set: domain.NewFavoriteSet()}
}

// Load replaces the in-memory set with the stored one and enables writes.
func (f *Favorites) Load(ctx context.Context) error {
	return f.rt.run(ctx, "load_favorites", func(ctx context.Context) (string, error) {
		set, err := f.rt.state.LoadFavorites(ctx)
		if err != nil {
			return domain.KeyFavorites, err
		}
		f.mu.Lock()
		f.set = set
		f.loaded = true
		f.mu.Unlock()
		return domain.KeyFavorites, nil
	})
}

// Loaded reports whether Load has completed.
func (f *Favorites) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Toggle adds id when absent and removes it when present, returning whether
// it is now a favorite.
func (f *Favorites) Toggle(ctx context.Context, id string) (bool, error) {
	var added bool
	err := f.rt.run(ctx, "toggle_favorite", func(ctx context.Context) (string, error) {
		if id == "" {
			return id, &domain.ValidationError{Field: "plant_id", Reason: "must not be blank"}
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		next := f.set.Clone()
		added = next.Toggle(id)
		if f.loaded {
			if err := f.rt.state.SaveFavorites(ctx, next); err != nil {
				return id, err
			}
		}
		f.set = next
		if f.loaded {
			f.rt.changed(domain.KeyFavorites)
		}
		return id, nil
	})
	return added, err
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.set.Contains(id)
}

// IDs returns the favorites sorted ascending.
func (f *Favorites) IDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.set.IDs()
}

// Set returns a copy of the current set.
func (f *Favorites) Set() domain.FavoriteSet {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.set.Clone()
}
