package core

import (
	"slices"
	"strings"

	"gardenplanner/pkg/domain"
)

// SortPlanPlants orders plant ids for the year planner table. Placed or
// in-bed rows come first depending on key; ties fall back to display name
// and then id. Ids missing from the catalog sort by the id itself.
func SortPlanPlants(ids []string, key domain.SortKey, catalog *Catalog, plan domain.YearPlan) []string {
	col := newCollator()
	rank := func(id string) int {
		if key.IsPlaced() && !plan.IsPlaced(id) {
			return 1
		}
		if bedID, ok := key.BedID(); ok && !plan.InBed(bedID, id) {
			return 1
		}
		return 0
	}
	name := func(id string) string {
		if catalog == nil {
			return id
		}
		return catalog.DisplayName(id)
	}
	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		if r := compareNames(col, name(a), name(b)); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
	return out
}
