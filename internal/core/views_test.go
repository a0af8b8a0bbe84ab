package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gardenplanner/pkg/domain"
)

type staticPlans map[string]domain.YearPlan

func (s staticPlans) Resolve(sel domain.PlanSelection) (domain.YearPlan, bool) {
	name, ok := sel.PlanName()
	if !ok {
		return domain.YearPlan{}, false
	}
	p, ok := s[name]
	return p, ok
}

func TestFilterMorotScenario(t *testing.T) {
	catalog := NewCatalog([]domain.Plant{
		{ID: "p1", Name: "Morot", SowingMonths: []int{4, 5}, HarvestMonths: []int{7, 8}},
	})
	favorites := domain.NewFavoriteSet("p1")

	only := FilterPlants(catalog, Filter{Selection: domain.AllPlans(), OnlyFavorites: true}, favorites, staticPlans{})
	if diff := cmp.Diff([]string{"p1"}, plantIDs(only)); diff != "" {
		t.Fatalf("favorites only (-want +got):\n%s", diff)
	}

	all := FilterPlants(catalog, Filter{Selection: domain.AllPlans()}, domain.NewFavoriteSet(), staticPlans{})
	if diff := cmp.Diff([]string{"p1"}, plantIDs(all)); diff != "" {
		t.Fatalf("favorites off should show every plant (-want +got):\n%s", diff)
	}

	blank := FilterPlants(catalog, Filter{Search: "   ", Selection: domain.AllPlans()}, nil, staticPlans{})
	if len(blank) != 1 {
		t.Fatalf("whitespace search should not filter, got %v", plantIDs(blank))
	}
}

func TestFilterSearchAndSource(t *testing.T) {
	catalog := testCatalog()
	sel := domain.AllPlans()

	byName := FilterPlants(catalog, Filter{Search: "MOR", Selection: sel}, nil, staticPlans{})
	if diff := cmp.Diff([]string{"p1"}, plantIDs(byName)); diff != "" {
		t.Fatalf("name search (-want +got):\n%s", diff)
	}
	bySource := FilterPlants(catalog, Filter{Search: "runå", Selection: sel}, nil, staticPlans{})
	if diff := cmp.Diff([]string{"p2", "p5"}, plantIDs(bySource)); diff != "" {
		t.Fatalf("source search (-want +got):\n%s", diff)
	}
	sourceOnly := FilterPlants(catalog, Filter{Source: "Impecta", Selection: sel}, nil, staticPlans{})
	if diff := cmp.Diff([]string{"p1", "p4"}, plantIDs(sourceOnly)); diff != "" {
		t.Fatalf("source filter (-want +got):\n%s", diff)
	}
}

func TestFilterConcretePlanIgnoresFavorites(t *testing.T) {
	catalog := testCatalog()
	plans := staticPlans{"X": {Name: "X", BedPlants: map[int64][]string{7: {"p2"}}}}
	favorites := domain.NewFavoriteSet("p1")

	for _, only := range []bool{true, false} {
		got := FilterPlants(catalog, Filter{Selection: domain.SelectPlan("X"), OnlyFavorites: only}, favorites, plans)
		if diff := cmp.Diff([]string{"p2"}, plantIDs(got)); diff != "" {
			t.Fatalf("onlyFavorites=%v (-want +got):\n%s", only, diff)
		}
	}
	missing := FilterPlants(catalog, Filter{Selection: domain.SelectPlan("gone")}, favorites, plans)
	if len(missing) != 0 {
		t.Fatalf("missing plan should show nothing, got %v", plantIDs(missing))
	}
}

func TestGroupNoneUsesSwedishOrder(t *testing.T) {
	plants := []domain.Plant{
		{ID: "a", Name: "Ölandsvete"},
		{ID: "b", Name: "Zucchini"},
		{ID: "c", Name: "Ärtor"},
		{ID: "d", Name: "Åkerböna"},
		{ID: "e", Name: "Morot"},
	}
	groups, err := GroupPlants(plants, domain.GroupNone, domain.AllPlans(), staticPlans{}, nil)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d", len(groups))
	}
	want := []string{"e", "b", "d", "c", "a"}
	if diff := cmp.Diff(want, plantIDs(groups[0].Plants)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestGroupBySourceOrdersUnknownLast(t *testing.T) {
	groups, err := GroupPlants(testCatalog().Plants(), domain.GroupSource, domain.AllPlans(), staticPlans{}, nil)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	titles := make([]string, len(groups))
	for i, g := range groups {
		titles[i] = g.Title
	}
	if diff := cmp.Diff([]string{"Impecta", "Runåbergs", UnknownSourceLabel}, titles); diff != "" {
		t.Fatalf("titles (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p1", "p4"}, plantIDs(groups[0].Plants)); diff != "" {
		t.Fatalf("impecta plants (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p5", "p2"}, plantIDs(groups[1].Plants)); diff != "" {
		t.Fatalf("runåbergs plants (-want +got):\n%s", diff)
	}
}

func TestGroupByBedDropsEmptyBedsAndCollectsUnplaced(t *testing.T) {
	beds := []domain.Bed{{ID: 1, Name: "B1"}, {ID: 2, Name: "B2"}}
	plans := staticPlans{"2024": {
		Name:      "2024",
		BedPlants: map[int64][]string{1: {"p1", "p2"}, 2: {}},
	}}
	plants := []domain.Plant{
		{ID: "p1", Name: "Morot"},
		{ID: "p2", Name: "Ärtor"},
		{ID: "p3", Name: "Dill"},
	}

	groups, err := GroupPlants(plants, domain.GroupBed, domain.SelectPlan("2024"), plans, beds)
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Title != "B1" || groups[0].BedID == nil || *groups[0].BedID != 1 {
		t.Fatalf("first group = %+v", groups[0])
	}
	if diff := cmp.Diff([]string{"p1", "p2"}, plantIDs(groups[0].Plants)); diff != "" {
		t.Fatalf("B1 plants (-want +got):\n%s", diff)
	}
	if groups[1].Title != UnplacedLabel {
		t.Fatalf("catch-all title = %q", groups[1].Title)
	}
	if diff := cmp.Diff([]string{"p3"}, plantIDs(groups[1].Plants)); diff != "" {
		t.Fatalf("catch-all plants (-want +got):\n%s", diff)
	}
}

func TestGroupByBedTreatsOrphanedBedsAsUnplaced(t *testing.T) {
	plans := staticPlans{"2024": {Name: "2024", BedPlants: map[int64][]string{99: {"p1"}}}}
	groups, err := GroupPlants([]domain.Plant{{ID: "p1", Name: "Morot"}}, domain.GroupBed, domain.SelectPlan("2024"), plans, []domain.Bed{{ID: 1, Name: "B1"}})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(groups) != 1 || groups[0].Title != UnplacedLabel {
		t.Fatalf("groups = %+v", groups)
	}
}

func TestGroupByBedNeedsConcretePlan(t *testing.T) {
	_, err := GroupPlants(nil, domain.GroupBed, domain.AllPlans(), staticPlans{}, nil)
	if !errors.Is(err, ErrBedGroupingNeedsPlan) {
		t.Fatalf("err = %v", err)
	}
	if _, err := GroupPlants(nil, domain.GroupMode("month"), domain.AllPlans(), staticPlans{}, nil); !domain.IsValidation(err) {
		t.Fatalf("unknown mode err = %v", err)
	}
}

func TestServiceBrowseCombinesRegistries(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.SetCatalog(testCatalog())
	bed := mustCreateBed(t, svc, "Köksträdgård")
	mustCreatePlan(t, svc, "2024")
	mustToggle(t, svc, "2024", bed.ID, "p4")
	mustToggle(t, svc, "2024", bed.ID, "p1")
	if _, err := svc.Favorites().Toggle(ctx, "p5"); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	groups, err := svc.Browse(Filter{Selection: domain.SelectPlan("2024"), OnlyFavorites: true}, domain.GroupBed)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(groups) != 1 || groups[0].Title != "Köksträdgård" {
		t.Fatalf("groups = %+v", groups)
	}
	if diff := cmp.Diff([]string{"p1", "p4"}, plantIDs(groups[0].Plants)); diff != "" {
		t.Fatalf("plants (-want +got):\n%s", diff)
	}
}
