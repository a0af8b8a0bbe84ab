package core

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"

	"gardenplanner/pkg/domain"
)

// Group labels shown by the grouped views.
const (
	UnknownSourceLabel = "Okänd källa"
	UnplacedLabel      = "Ej placerade"
	AllPlantsLabel     = "Alla växter"
)

// ErrBedGroupingNeedsPlan is returned when bed grouping is requested while
// the "all plants" selection is active.
var ErrBedGroupingNeedsPlan = errors.New("grouping by bed requires a concrete year plan")

// Filter holds the user-controlled predicates of the plant list.
type Filter struct {
	// Search matches name or source, case-insensitively. Blank after
	// trimming means no search.
	Search string
	// Source keeps only plants from one source. Empty means any source.
	Source string
	// Selection is the active plan; AllPlans falls back to favorites.
	Selection domain.PlanSelection
	// OnlyFavorites limits AllPlans to favorites. Ignored for a concrete plan.
	OnlyFavorites bool
}

// PlanLookup resolves a plan selection. A concrete name that does not exist
// resolves to false.
type PlanLookup interface {
	Resolve(sel domain.PlanSelection) (domain.YearPlan, bool)
}

// PlantGroup is one titled section of a grouped plant list. BedID is set for
// bed groups.
type PlantGroup struct {
	Key    string
	Title  string
	BedID  *int64
	Plants []domain.Plant
}

// FilterPlants returns the catalog plants matching f in catalog order.
func FilterPlants(catalog *Catalog, f Filter, favorites domain.FavoriteSet, plans PlanLookup) []domain.Plant {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var member func(id string) bool
	if name, concrete := f.Selection.PlanName(); concrete {
		inPlan := map[string]struct{}{}
		if plan, ok := plans.Resolve(domain.SelectPlan(name)); ok {
			for _, id := range plan.PlantIDs() {
				inPlan[id] = struct{}{}
			}
		}
		member = func(id string) bool {
			_, ok := inPlan[id]
			return ok
		}
	} else if f.OnlyFavorites {
		member = favorites.Contains
	} else {
		member = func(string) bool { return true }
	}

	out := make([]domain.Plant, 0)
	for _, p := range catalog.Plants() {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Source), search) {
			continue
		}
		if f.Source != "" && p.Source != f.Source {
			continue
		}
		if !member(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GroupPlants splits plants into display groups. Every group is sorted by
// name under Swedish collation and empty groups are never returned.
//
// Source groups are ordered by collated source name with the unknown source
// last. Bed groups follow bed registry order; plants that sit in no
// registered bed of the plan land in a final catch-all group.
func GroupPlants(plants []domain.Plant, mode domain.GroupMode, sel domain.PlanSelection, plans PlanLookup, beds []domain.Bed) ([]PlantGroup, error) {
	col := newCollator()
	switch mode {
	case domain.GroupNone, "":
		if len(plants) == 0 {
			return []PlantGroup{}, nil
		}
		return []PlantGroup{{Key: "all", Title: AllPlantsLabel, Plants: sortPlants(col, plants)}}, nil
	case domain.GroupSource:
		return groupBySource(col, plants), nil
	case domain.GroupBed:
		if sel.IsAll() {
			return nil, ErrBedGroupingNeedsPlan
		}
		plan, _ := plans.Resolve(sel)
		return groupByBed(col, plants, plan, beds), nil
	default:
		return nil, &domain.ValidationError{Field: "group", Reason: "unknown group mode " + strconv.Quote(string(mode))}
	}
}

func groupBySource(col *collate.Collator, plants []domain.Plant) []PlantGroup {
	bySource := map[string][]domain.Plant{}
	var unknown []domain.Plant
	for _, p := range plants {
		if p.Source == "" {
			unknown = append(unknown, p)
			continue
		}
		bySource[p.Source] = append(bySource[p.Source], p)
	}
	groups := make([]PlantGroup, 0, len(bySource)+1)
	for _, source := range sortedNames(bySource) {
		groups = append(groups, PlantGroup{Key: "source:" + source, Title: source, Plants: sortPlants(col, bySource[source])})
	}
	if len(unknown) > 0 {
		groups = append(groups, PlantGroup{Key: "source:", Title: UnknownSourceLabel, Plants: sortPlants(col, unknown)})
	}
	return groups
}

func groupByBed(col *collate.Collator, plants []domain.Plant, plan domain.YearPlan, beds []domain.Bed) []PlantGroup {
	known := make(map[int64]struct{}, len(beds))
	for _, b := range beds {
		known[b.ID] = struct{}{}
	}
	groups := make([]PlantGroup, 0, len(beds)+1)
	for _, b := range beds {
		var members []domain.Plant
		for _, p := range plants {
			if plan.InBed(b.ID, p.ID) {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			continue
		}
		id := b.ID
		groups = append(groups, PlantGroup{
			Key:    "bed:" + bedKey(b.ID),
			Title:  b.Name,
			BedID:  &id,
			Plants: sortPlants(col, members),
		})
	}
	var unplaced []domain.Plant
	for _, p := range plants {
		placed := slices.ContainsFunc(plan.BedsFor(p.ID), func(bedID int64) bool {
			_, ok := known[bedID]
			return ok
		})
		if !placed {
			unplaced = append(unplaced, p)
		}
	}
	if len(unplaced) > 0 {
		groups = append(groups, PlantGroup{Key: "bed:", Title: UnplacedLabel, Plants: sortPlants(col, unplaced)})
	}
	return groups
}

func sortPlants(col *collate.Collator, plants []domain.Plant) []domain.Plant {
	out := slices.Clone(plants)
	slices.SortStableFunc(out, func(a, b domain.Plant) int {
		if r := compareNames(col, a.Name, b.Name); r != 0 {
			return r
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
