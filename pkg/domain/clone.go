package domain

// CloneBed returns a deep copy of b.
func CloneBed(b Bed) Bed {
	cp := b
	cp.Plants = cloneStrings(b.Plants)
	return cp
}

// CloneYearPlan returns a deep copy of p; the result shares no maps or slices.
func CloneYearPlan(p YearPlan) YearPlan {
	cp := p
	cp.BedPlants = make(map[int64][]string, len(p.BedPlants))
	for bedID, ids := range p.BedPlants {
		cp.BedPlants[bedID] = cloneStrings(ids)
	}
	cp.PlantDates = cloneStringMap(p.PlantDates)
	cp.HarvestedDates = cloneStringMap(p.HarvestedDates)
	return cp
}

// CloneGardenGrid returns a deep copy of g including every occupied cell.
func CloneGardenGrid(g GardenGrid) GardenGrid {
	cp := g
	cp.Grid = make([][]*Cell, len(g.Grid))
	for y, row := range g.Grid {
		cp.Grid[y] = make([]*Cell, len(row))
		for x, cell := range row {
			if cell != nil {
				c := *cell
				cp.Grid[y][x] = &c
			}
		}
	}
	return cp
}

// CloneVisualDesign returns a deep copy of d.
func CloneVisualDesign(d VisualDesign) VisualDesign {
	cp := d
	cp.Beds = make([]PlacedBed, len(d.Beds))
	for i, b := range d.Beds {
		cp.Beds[i] = b
		if b.SavedBedID != nil {
			id := *b.SavedBedID
			cp.Beds[i].SavedBedID = &id
		}
	}
	return cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
