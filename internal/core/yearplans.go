package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

// YearPlanRegistry owns the yearly plans (key yearPlans). Every successful
// write publishes a change event so other views re-read the snapshot.
type YearPlanRegistry struct {
	rt     *runtime
	mu     sync.RWMutex
	state  domain.YearPlansState
	loaded bool
}

func newYearPlanRegistry(rt *runtime) *YearPlanRegistry {
	return &YearPlanRegistry{rt: rt, state: domain.YearPlansState{Plans: map[string]domain.YearPlan{}}}
}

// Load replaces the registry with the stored state and enables writes.
func (r *YearPlanRegistry) Load(ctx context.Context) error {
	return r.rt.run(ctx, "load_year_plans", func(ctx context.Context) (string, error) {
		state, err := r.rt.state.LoadYearPlans(ctx)
		if err != nil {
			return domain.KeyYearPlans, err
		}
		r.mu.Lock()
		r.state = state
		r.loaded = true
		r.mu.Unlock()
		return domain.KeyYearPlans, nil
	})
}

// Loaded reports whether Load has completed.
func (r *YearPlanRegistry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// CreatePlan adds an empty plan and makes it active. Blank and duplicate
// names are rejected.
func (r *YearPlanRegistry) CreatePlan(ctx context.Context, name string) (domain.YearPlan, error) {
	var created domain.YearPlan
	err := r.rt.run(ctx, "create_year_plan", func(ctx context.Context) (string, error) {
		trimmed, err := domain.RequireName("name", name)
		if err != nil {
			return name, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, exists := r.state.Plans[trimmed]; exists {
			return trimmed, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("plan %q already exists", trimmed)}
		}
		now := r.rt.now()
		created = domain.YearPlan{
			Name:           trimmed,
			BedPlants:      map[int64][]string{},
			PlantDates:     map[string]string{},
			HarvestedDates: map[string]string{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		next := r.cloneState()
		next.Plans[trimmed] = created
		next.ActivePlan = &trimmed
		return trimmed, r.commit(ctx, next)
	})
	if err != nil {
		return domain.YearPlan{}, err
	}
	return domain.CloneYearPlan(created), nil
}

// CopyPlan deep-copies bed assignments and planting dates of source into
// dest. Harvest dates start empty. Overwriting an existing dest needs
// confirmation. The copy becomes active.
func (r *YearPlanRegistry) CopyPlan(ctx context.Context, source, dest string) (domain.YearPlan, error) {
	var copied domain.YearPlan
	err := r.rt.run(ctx, "copy_year_plan", func(ctx context.Context) (string, error) {
		target, err := domain.RequireName("name", dest)
		if err != nil {
			return dest, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		src, ok := r.state.Plans[source]
		if !ok {
			return source, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: source}
		}
		if target == source {
			return target, &domain.ValidationError{Field: "name", Reason: "copy target must differ from source"}
		}
		if _, exists := r.state.Plans[target]; exists {
			if err := r.rt.confirm(ctx, fmt.Sprintf("Plan %q exists. Overwrite?", target)); err != nil {
				return target, err
			}
		}
		now := r.rt.now()
		clone := domain.CloneYearPlan(src)
		copied = domain.YearPlan{
			Name:           target,
			BedPlants:      clone.BedPlants,
			PlantDates:     clone.PlantDates,
			HarvestedDates: map[string]string{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		next := r.cloneState()
		next.Plans[target] = copied
		next.ActivePlan = &target
		return target, r.commit(ctx, next)
	})
	if err != nil {
		return domain.YearPlan{}, err
	}
	return domain.CloneYearPlan(copied), nil
}

// DeletePlan removes a plan after confirmation. When it was active, the
// first remaining plan by name becomes active, or none.
func (r *YearPlanRegistry) DeletePlan(ctx context.Context, name string) error {
	return r.rt.run(ctx, "delete_year_plan", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.state.Plans[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: name}
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Delete plan %q?", name)); err != nil {
			return name, err
		}
		next := r.cloneState()
		delete(next.Plans, name)
		if next.ActivePlan != nil && *next.ActivePlan == name {
			next.ActivePlan = nil
			if names := sortedNames(next.Plans); len(names) > 0 {
				next.ActivePlan = &names[0]
			}
		}
		return name, r.commit(ctx, next)
	})
}

// RenamePlan moves a plan to a new unused name, keeping its contents and
// active status.
func (r *YearPlanRegistry) RenamePlan(ctx context.Context, oldName, newName string) (domain.YearPlan, error) {
	var renamed domain.YearPlan
	err := r.rt.run(ctx, "rename_year_plan", func(ctx context.Context) (string, error) {
		target, err := domain.RequireName("name", newName)
		if err != nil {
			return oldName, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		plan, ok := r.state.Plans[oldName]
		if !ok {
			return oldName, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: oldName}
		}
		if target == oldName {
			renamed = domain.CloneYearPlan(plan)
			return oldName, nil
		}
		if _, exists := r.state.Plans[target]; exists {
			return target, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("plan %q already exists", target)}
		}
		next := r.cloneState()
		renamed = domain.CloneYearPlan(plan)
		renamed.Name = target
		renamed.UpdatedAt = r.rt.now()
		delete(next.Plans, oldName)
		next.Plans[target] = renamed
		if next.ActivePlan != nil && *next.ActivePlan == oldName {
			next.ActivePlan = &target
		}
		return target, r.commit(ctx, next)
	})
	if err != nil {
		return domain.YearPlan{}, err
	}
	return domain.CloneYearPlan(renamed), nil
}

// SetActive stores the selected plan. AllPlans clears the active plan.
func (r *YearPlanRegistry) SetActive(ctx context.Context, sel domain.PlanSelection) error {
	return r.rt.run(ctx, "set_active_year_plan", func(ctx context.Context) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		name, concrete := sel.PlanName()
		if !concrete {
			next.ActivePlan = nil
			return "", r.commit(ctx, next)
		}
		if _, ok := next.Plans[name]; !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: name}
		}
		next.ActivePlan = &name
		return name, r.commit(ctx, next)
	})
}

// Active returns the stored selection.
func (r *YearPlanRegistry) Active() domain.PlanSelection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.ActivePlan == nil {
		return domain.AllPlans()
	}
	return domain.SelectPlan(*r.state.ActivePlan)
}

// Plan returns a copy of the named plan.
func (r *YearPlanRegistry) Plan(name string) (domain.YearPlan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.state.Plans[name]
	if !ok {
		return domain.YearPlan{}, false
	}
	return domain.CloneYearPlan(p), true
}

// Resolve returns the plan a selection points at. AllPlans and unknown names
// resolve to false.
func (r *YearPlanRegistry) Resolve(sel domain.PlanSelection) (domain.YearPlan, bool) {
	name, concrete := sel.PlanName()
	if !concrete {
		return domain.YearPlan{}, false
	}
	return r.Plan(name)
}

// Names returns plan names in collation order.
func (r *YearPlanRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.state.Plans)
}

// State returns a deep copy of the registry state.
func (r *YearPlanRegistry) State() domain.YearPlansState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cloneState()
}

// TogglePlantInBed removes plantID from the bed's list when present and
// appends it otherwise. It returns whether the plant is now in the bed. This
// is the only way plan membership changes.
func (r *YearPlanRegistry) TogglePlantInBed(ctx context.Context, planName string, bedID int64, plantID string) (bool, error) {
	var added bool
	err := r.rt.run(ctx, "toggle_plant_in_bed", func(ctx context.Context) (string, error) {
		if plantID == "" {
			return planName, &domain.ValidationError{Field: "plant_id", Reason: "must not be blank"}
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.state.Plans[planName]; !ok {
			return planName, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: planName}
		}
		next := r.cloneState()
		plan := next.Plans[planName]
		ids := plan.BedPlants[bedID]
		if i := slices.Index(ids, plantID); i >= 0 {
			plan.BedPlants[bedID] = slices.Delete(ids, i, i+1)
			added = false
		} else {
			plan.BedPlants[bedID] = append(ids, plantID)
			added = true
		}
		plan.UpdatedAt = r.rt.now()
		next.Plans[planName] = plan
		return planName, r.commit(ctx, next)
	})
	return added, err
}

// SetPlantDate records when plantID was planted in the selected plan. It is
// a no-op for AllPlans; an empty date clears the entry.
func (r *YearPlanRegistry) SetPlantDate(ctx context.Context, sel domain.PlanSelection, plantID, date string) error {
	return r.setDate(ctx, "set_plant_date", sel, plantID, date, func(p *domain.YearPlan) map[string]string {
		if p.PlantDates == nil {
			p.PlantDates = map[string]string{}
		}
		return p.PlantDates
	})
}

// SetHarvestedDate records when plantID was harvested in the selected plan.
// It is a no-op for AllPlans; an empty date clears the entry.
func (r *YearPlanRegistry) SetHarvestedDate(ctx context.Context, sel domain.PlanSelection, plantID, date string) error {
	return r.setDate(ctx, "set_harvested_date", sel, plantID, date, func(p *domain.YearPlan) map[string]string {
		if p.HarvestedDates == nil {
			p.HarvestedDates = map[string]string{}
		}
		return p.HarvestedDates
	})
}

func (r *YearPlanRegistry) setDate(ctx context.Context, op string, sel domain.PlanSelection, plantID, date string, field func(*domain.YearPlan) map[string]string) error {
	planName, concrete := sel.PlanName()
	if !concrete {
		return nil
	}
	return r.rt.run(ctx, op, func(ctx context.Context) (string, error) {
		if plantID == "" {
			return planName, &domain.ValidationError{Field: "plant_id", Reason: "must not be blank"}
		}
		normalized := ""
		if strings.TrimSpace(date) != "" {
			var err error
			if normalized, err = domain.RequireDate("date", date); err != nil {
				return planName, err
			}
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.state.Plans[planName]; !ok {
			return planName, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: planName}
		}
		next := r.cloneState()
		plan := next.Plans[planName]
		dates := field(&plan)
		if normalized == "" {
			delete(dates, plantID)
		} else {
			dates[plantID] = normalized
		}
		plan.UpdatedAt = r.rt.now()
		next.Plans[planName] = plan
		return planName, r.commit(ctx, next)
	})
}

// PlantsInPlan returns the de-duplicated plant ids assigned to any bed of the
// plan, sorted ascending. An unknown plan has no plants.
func (r *YearPlanRegistry) PlantsInPlan(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.state.Plans[name]
	if !ok {
		return []string{}
	}
	return plan.PlantIDs()
}

// BedsForPlant returns the bed ids of the plan that list plantID.
func (r *YearPlanRegistry) BedsForPlant(name, plantID string) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.state.Plans[name]
	if !ok {
		return nil
	}
	return plan.BedsFor(plantID)
}

// Export writes the whole registry to a dated JSON file.
func (r *YearPlanRegistry) Export(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_year_plans", func(ctx context.Context) (string, error) {
		var err error
		info, err = r.rt.export(ctx, "yearplans", r.State())
		return info.Key, err
	})
	return info, err
}

// ExportPlan writes one plan to a dated JSON file.
func (r *YearPlanRegistry) ExportPlan(ctx context.Context, name string) (blob.Info, error) {
	var info blob.Info
	err := r.rt.run(ctx, "export_year_plan", func(ctx context.Context) (string, error) {
		plan, ok := r.Plan(name)
		if !ok {
			return name, domain.ErrNotFound{Entity: domain.EntityYearPlan, ID: name}
		}
		var err error
		info, err = r.rt.export(ctx, "yearplan-"+exportSlug(name), plan)
		return name, err
	})
	return info, err
}

// Import reads either a full registry export ({"plans": {...}}) or a single
// plan export and, after confirmation, replaces plans with the same name.
// Other plans and the active selection are kept. It returns how many plans
// were written.
func (r *YearPlanRegistry) Import(ctx context.Context, src io.Reader) (int, error) {
	var count int
	err := r.rt.run(ctx, "import_year_plans", func(ctx context.Context) (string, error) {
		doc, err := decodeImport[map[string]json.RawMessage](src)
		if err != nil {
			return "", err
		}
		plans, err := recordsFromImport(doc, "plans", func(p domain.YearPlan) string { return p.Name })
		if err != nil {
			return "", err
		}
		if err := r.rt.confirm(ctx, fmt.Sprintf("Import %d plans, replacing plans with the same name?", len(plans))); err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		next := r.cloneState()
		for name, plan := range plans {
			next.Plans[name] = normalizeYearPlan(name, plan)
		}
		if err := r.commit(ctx, next); err != nil {
			return "", err
		}
		count = len(plans)
		return strconv.Itoa(count), nil
	})
	return count, err
}

// commit persists next and swaps it in. Callers hold r.mu.
func (r *YearPlanRegistry) commit(ctx context.Context, next domain.YearPlansState) error {
	if !r.loaded {
		return fmt.Errorf("%s: %w", domain.KeyYearPlans, domain.ErrNotLoaded)
	}
	if err := r.rt.state.SaveYearPlans(ctx, next); err != nil {
		return err
	}
	r.state = next
	r.rt.changed(domain.KeyYearPlans)
	return nil
}

func (r *YearPlanRegistry) cloneState() domain.YearPlansState {
	out := domain.YearPlansState{Plans: make(map[string]domain.YearPlan, len(r.state.Plans))}
	for name, p := range r.state.Plans {
		out.Plans[name] = domain.CloneYearPlan(p)
	}
	if r.state.ActivePlan != nil {
		active := *r.state.ActivePlan
		out.ActivePlan = &active
	}
	return out
}

// sortedNames returns map keys in collation order.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	col := newCollator()
	slices.SortFunc(names, func(a, b string) int { return compareNames(col, a, b) })
	return names
}

// exportSlug turns a record name into a lowercase export kind suffix.
func exportSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch r {
		case 'å', 'ä':
			r = 'a'
		case 'ö':
			r = 'o'
		case 'é':
			r = 'e'
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "unnamed"
	}
	return slug
}
