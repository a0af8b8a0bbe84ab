// Package domain defines the persisted garden records, selection values, and
// validation primitives shared by gardenplanner's registries and views.
package domain

import (
	"sort"
	"time"
)

// EntityType identifies the kind of record a registry owns.
type EntityType string

// Supported entity type identifiers used in errors and audit entries.
const (
	// EntityPlant identifies a catalog plant.
	EntityPlant EntityType = "plant"
	// EntityBed identifies a saved garden bed.
	EntityBed EntityType = "bed"
	// EntityYearPlan identifies a yearly planting plan.
	EntityYearPlan EntityType = "year_plan"
	// EntityGarden identifies a grid-of-cells garden map.
	EntityGarden EntityType = "garden"
	// EntityDesign identifies a freeform visual bed design.
	EntityDesign EntityType = "design"
	// EntityPlacedBed identifies a rectangle inside a visual design.
	EntityPlacedBed EntityType = "placed_bed"
)

// DefaultCategory is assigned to catalog plants without a category.
const DefaultCategory = "Övrigt"

// Plant is an immutable catalog record. Month slices are always non-nil after
// the catalog boundary normalizes them.
type Plant struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	LatinName      string   `json:"latin_name,omitempty"`
	Category       string   `json:"category"`
	Source         string   `json:"source,omitempty"`
	SeedlingMonths []int    `json:"seedling_months"`
	SowingMonths   []int    `json:"sowing_months"`
	HarvestMonths  []int    `json:"harvest_months"`
	Description    string   `json:"description,omitempty"`
	Sun            string   `json:"sun,omitempty"`
	Water          string   `json:"water,omitempty"`
	SpacingCM      *float64 `json:"spacing_cm,omitempty"`
	HeightCM       *float64 `json:"height_cm,omitempty"`
}

// Bed is a named garden bed. Plants holds plant names, not catalog ids.
type Bed struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Width       float64   `json:"width"`
	Length      float64   `json:"length"`
	Description string    `json:"description,omitempty"`
	Plants      []string  `json:"plants"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// YearPlan assigns catalog plant ids to beds for one season. Bed ids and plant
// ids are weak references: either may point at a record that no longer exists.
type YearPlan struct {
	Name           string             `json:"name"`
	BedPlants      map[int64][]string `json:"bedPlants"`
	PlantDates     map[string]string  `json:"plantDates,omitempty"`
	HarvestedDates map[string]string  `json:"harvestedDates,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// PlantIDs returns the de-duplicated union of plant ids across all beds,
// sorted ascending.
func (p YearPlan) PlantIDs() []string {
	seen := make(map[string]struct{})
	for _, ids := range p.BedPlants {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// InBed reports whether plantID is listed under bedID.
func (p YearPlan) InBed(bedID int64, plantID string) bool {
	for _, id := range p.BedPlants[bedID] {
		if id == plantID {
			return true
		}
	}
	return false
}

// IsPlaced reports whether plantID is listed under any bed key of the plan.
func (p YearPlan) IsPlaced(plantID string) bool {
	for bedID := range p.BedPlants {
		if p.InBed(bedID, plantID) {
			return true
		}
	}
	return false
}

// BedsFor returns the bed ids listing plantID, sorted ascending.
func (p YearPlan) BedsFor(plantID string) []int64 {
	var out []int64
	for bedID := range p.BedPlants {
		if p.InBed(bedID, plantID) {
			out = append(out, bedID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// YearPlansState is the persisted container for all plans.
type YearPlansState struct {
	Plans      map[string]YearPlan `json:"plans"`
	ActivePlan *string             `json:"activePlan"`
}

// Cell is one occupied square of a garden grid.
type Cell struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	PlantedAt string `json:"plantedAt"`
}

// GardenGrid is a grid-of-cells garden map. Grid is indexed [row][column];
// nil entries are empty cells.
type GardenGrid struct {
	Name     string    `json:"name"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	CellSize int       `json:"cellSize"`
	Grid     [][]*Cell `json:"grid"`
	SavedAt  time.Time `json:"savedAt"`
}

// GardensState is the persisted container for all garden grids.
type GardensState struct {
	Gardens      map[string]GardenGrid `json:"gardens"`
	ActiveGarden *string               `json:"activeGarden"`
}

// Orientation is the page orientation of a visual design.
type Orientation string

// Supported design orientations.
const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Valid reports whether the orientation is one of the supported values.
func (o Orientation) Valid() bool {
	return o == OrientationPortrait || o == OrientationLandscape
}

// PlacedBed is a rectangle in a visual design. SavedBedID is an advisory link
// back to the bed registry; the source bed may have been deleted.
type PlacedBed struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	SavedBedID *int64  `json:"savedBedId,omitempty"`
}

// VisualDesign is a freeform layout of placed beds.
type VisualDesign struct {
	Name        string      `json:"name"`
	Beds        []PlacedBed `json:"beds"`
	Orientation Orientation `json:"orientation"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// DesignsState is the persisted container for all visual designs.
type DesignsState struct {
	Designs      map[string]VisualDesign `json:"designs"`
	ActiveDesign *string                 `json:"activeDesign"`
}
