package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gardenplanner/pkg/domain"
)

// StateStore gives typed access to each registry's key. Backend errors are
// returned; a stored value that does not decode is logged and treated as
// absent so the registry starts from its empty default.
type StateStore struct {
	kv     domain.KeyValueStore
	logger Logger
}

// NewStateStore wraps kv. A nil logger discards warnings.
func NewStateStore(kv domain.KeyValueStore, logger Logger) *StateStore {
	if logger == nil {
		logger = noopLogger{}
	}
	return &StateStore{kv: kv, logger: logger}
}

// Backend returns the underlying key-value store.
func (s *StateStore) Backend() domain.KeyValueStore { return s.kv }

func loadJSON[T any](ctx context.Context, s *StateStore, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("read %s: %w", key, err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("discarding corrupt stored value", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}

func saveJSON(ctx context.Context, s *StateStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// flexibleID decodes an id written either as a JSON string or a number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = flexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexibleID(n.String())
	return nil
}

// LoadFavorites reads myPlants.
func (s *StateStore) LoadFavorites(ctx context.Context) (domain.FavoriteSet, error) {
	ids, _, err := loadJSON[[]flexibleID](ctx, s, domain.KeyFavorites)
	if err != nil {
		return nil, err
	}
	set := make(domain.FavoriteSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[string(id)] = struct{}{}
		}
	}
	return set, nil
}

// SaveFavorites writes myPlants as an ascending JSON array.
func (s *StateStore) SaveFavorites(ctx context.Context, set domain.FavoriteSet) error {
	return saveJSON(ctx, s, domain.KeyFavorites, set.IDs())
}

// LoadBeds reads myGardenBeds.
func (s *StateStore) LoadBeds(ctx context.Context) ([]domain.Bed, error) {
	beds, _, err := loadJSON[[]domain.Bed](ctx, s, domain.KeyBeds)
	if err != nil {
		return nil, err
	}
	return normalizeBeds(beds), nil
}

// SaveBeds writes myGardenBeds.
func (s *StateStore) SaveBeds(ctx context.Context, beds []domain.Bed) error {
	return saveJSON(ctx, s, domain.KeyBeds, normalizeBeds(beds))
}

// LoadYearPlans reads yearPlans.
func (s *StateStore) LoadYearPlans(ctx context.Context) (domain.YearPlansState, error) {
	state, _, err := loadJSON[domain.YearPlansState](ctx, s, domain.KeyYearPlans)
	if err != nil {
		return domain.YearPlansState{}, err
	}
	return normalizeYearPlans(state), nil
}

// SaveYearPlans writes yearPlans.
func (s *StateStore) SaveYearPlans(ctx context.Context, state domain.YearPlansState) error {
	return saveJSON(ctx, s, domain.KeyYearPlans, normalizeYearPlans(state))
}

// LoadGardens reads gardensData. Gardens whose size is out of range are
// dropped before their grids are allocated.
func (s *StateStore) LoadGardens(ctx context.Context) (domain.GardensState, error) {
	state, _, err := loadJSON[domain.GardensState](ctx, s, domain.KeyGardens)
	if err != nil {
		return domain.GardensState{}, err
	}
	for name, g := range state.Gardens {
		if err := validateGridSize(g.Width, g.Height); err != nil {
			s.logger.Warn("discarding garden with invalid size", "garden", name, "error", err)
			delete(state.Gardens, name)
		}
	}
	return normalizeGardens(state), nil
}

// SaveGardens writes gardensData.
func (s *StateStore) SaveGardens(ctx context.Context, state domain.GardensState) error {
	return saveJSON(ctx, s, domain.KeyGardens, normalizeGardens(state))
}

// LoadDesigns reads visualDesigns.
func (s *StateStore) LoadDesigns(ctx context.Context) (domain.DesignsState, error) {
	state, _, err := loadJSON[domain.DesignsState](ctx, s, domain.KeyDesigns)
	if err != nil {
		return domain.DesignsState{}, err
	}
	return normalizeDesigns(state), nil
}

// SaveDesigns writes visualDesigns.
func (s *StateStore) SaveDesigns(ctx context.Context, state domain.DesignsState) error {
	return saveJSON(ctx, s, domain.KeyDesigns, normalizeDesigns(state))
}

// Raw returns the stored text of key.
func (s *StateStore) Raw(ctx context.Context, key string) ([]byte, bool, error) {
	return s.kv.Get(ctx, key)
}

// SetRaw replaces the stored text of key without decoding it.
func (s *StateStore) SetRaw(ctx context.Context, key string, value []byte) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys.
func (s *StateStore) Keys(ctx context.Context) ([]string, error) {
	return s.kv.Keys(ctx)
}

func normalizeBeds(beds []domain.Bed) []domain.Bed {
	out := make([]domain.Bed, 0, len(beds))
	for _, b := range beds {
		b = domain.CloneBed(b)
		if b.Plants == nil {
			b.Plants = []string{}
		}
		out = append(out, b)
	}
	return out
}

func normalizeYearPlan(name string, p domain.YearPlan) domain.YearPlan {
	p = domain.CloneYearPlan(p)
	p.Name = name
	for bedID, ids := range p.BedPlants {
		if ids == nil {
			p.BedPlants[bedID] = []string{}
		}
	}
	return p
}

func normalizeYearPlans(state domain.YearPlansState) domain.YearPlansState {
	out := domain.YearPlansState{Plans: make(map[string]domain.YearPlan, len(state.Plans))}
	for name, plan := range state.Plans {
		out.Plans[name] = normalizeYearPlan(name, plan)
	}
	if state.ActivePlan != nil {
		if _, ok := out.Plans[*state.ActivePlan]; ok {
			active := *state.ActivePlan
			out.ActivePlan = &active
		}
	}
	return out
}

func normalizeGardens(state domain.GardensState) domain.GardensState {
	out := domain.GardensState{Gardens: make(map[string]domain.GardenGrid, len(state.Gardens))}
	for name, g := range state.Gardens {
		g = domain.CloneGardenGrid(g)
		g.Name = name
		out.Gardens[name] = fitGrid(g)
	}
	if state.ActiveGarden != nil {
		if _, ok := out.Gardens[*state.ActiveGarden]; ok {
			active := *state.ActiveGarden
			out.ActiveGarden = &active
		}
	}
	return out
}

func normalizeDesigns(state domain.DesignsState) domain.DesignsState {
	out := domain.DesignsState{Designs: make(map[string]domain.VisualDesign, len(state.Designs))}
	for name, d := range state.Designs {
		d = domain.CloneVisualDesign(d)
		d.Name = name
		if !d.Orientation.Valid() {
			d.Orientation = domain.OrientationPortrait
		}
		out.Designs[name] = d
	}
	if state.ActiveDesign != nil {
		if _, ok := out.Designs[*state.ActiveDesign]; ok {
			active := *state.ActiveDesign
			out.ActiveDesign = &active
		}
	}
	return out
}
