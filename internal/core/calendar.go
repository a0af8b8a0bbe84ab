package core

import (
	"time"

	"gardenplanner/pkg/domain"
)

// MonthRow lists the plants with activity in one month.
type MonthRow struct {
	Month     time.Month
	Seedlings []domain.Plant
	Sowing    []domain.Plant
	Harvest   []domain.Plant
}

// Empty reports whether nothing happens in the month.
func (r MonthRow) Empty() bool {
	return len(r.Seedlings) == 0 && len(r.Sowing) == 0 && len(r.Harvest) == 0
}

// MonthCalendar returns twelve rows, January first.
func MonthCalendar(plants []domain.Plant) []MonthRow {
	col := newCollator()
	sorted := sortPlants(col, plants)
	rows := make([]MonthRow, 12)
	for i := range rows {
		m := i + 1
		row := MonthRow{
			Month:     time.Month(m),
			Seedlings: []domain.Plant{},
			Sowing:    []domain.Plant{},
			Harvest:   []domain.Plant{},
		}
		for _, p := range sorted {
			if domain.HasMonth(p.SeedlingMonths, m) {
				row.Seedlings = append(row.Seedlings, p)
			}
			if domain.HasMonth(p.SowingMonths, m) {
				row.Sowing = append(row.Sowing, p)
			}
			if domain.HasMonth(p.HarvestMonths, m) {
				row.Harvest = append(row.Harvest, p)
			}
		}
		rows[i] = row
	}
	return rows
}
