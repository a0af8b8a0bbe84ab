package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PlanSelection is the active plan filter of a view: either every plant
// (AllPlans) or one concrete plan by name. The zero value is AllPlans, so a
// plan named "all" never collides with the sentinel.
type PlanSelection struct {
	name     string
	concrete bool
}

// AllPlans selects no plan; membership falls back to the favorites toggle.
func AllPlans() PlanSelection { return PlanSelection{} }

// SelectPlan selects the named plan.
func SelectPlan(name string) PlanSelection {
	return PlanSelection{name: name, concrete: true}
}

// IsAll reports whether the selection is the "all plants" sentinel.
func (s PlanSelection) IsAll() bool { return !s.concrete }

// PlanName returns the selected plan name and whether a plan is selected.
func (s PlanSelection) PlanName() (string, bool) { return s.name, s.concrete }

func (s PlanSelection) String() string {
	if !s.concrete {
		return "<all>"
	}
	return strconv.Quote(s.name)
}

type sortKind uint8

const (
	sortByName sortKind = iota
	sortByPlaced
	sortByBed
)

// SortKey orders the year planner table: by name, placed-first, or
// assigned-to-one-bed-first.
type SortKey struct {
	kind  sortKind
	bedID int64
}

// SortByName orders rows by display name.
func SortByName() SortKey { return SortKey{kind: sortByName} }

// SortByPlaced puts rows assigned to any bed first.
func SortByPlaced() SortKey { return SortKey{kind: sortByPlaced} }

// SortByBed puts rows assigned to bedID first.
func SortByBed(bedID int64) SortKey { return SortKey{kind: sortByBed, bedID: bedID} }

// IsName reports whether the key sorts purely by name.
func (k SortKey) IsName() bool { return k.kind == sortByName }

// IsPlaced reports whether the key is the placed-first sentinel.
func (k SortKey) IsPlaced() bool { return k.kind == sortByPlaced }

// BedID returns the bed id when the key targets a specific bed.
func (k SortKey) BedID() (int64, bool) { return k.bedID, k.kind == sortByBed }

func (k SortKey) String() string {
	switch k.kind {
	case sortByPlaced:
		return "placed"
	case sortByBed:
		return strconv.FormatInt(k.bedID, 10)
	default:
		return "name"
	}
}

// ParseSortKey accepts "name", "placed", or a decimal bed id.
func ParseSortKey(raw string) (SortKey, error) {
	switch v := strings.TrimSpace(raw); v {
	case "", "name":
		return SortByName(), nil
	case "placed":
		return SortByPlaced(), nil
	default:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return SortKey{}, fmt.Errorf("invalid sort key %q: want name, placed or a bed id", raw)
		}
		return SortByBed(id), nil
	}
}

// GroupMode selects how a plant list is split into display groups.
type GroupMode string

// Supported grouping modes.
const (
	GroupNone   GroupMode = "none"
	GroupSource GroupMode = "source"
	GroupBed    GroupMode = "bed"
)

// ParseGroupMode validates a grouping mode; blank means GroupNone.
func ParseGroupMode(raw string) (GroupMode, error) {
	switch mode := GroupMode(strings.TrimSpace(raw)); mode {
	case "":
		return GroupNone, nil
	case GroupNone, GroupSource, GroupBed:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid group mode %q", raw)
	}
}
