package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for plan and cell dates.
const DateLayout = "2006-01-02"

// RequireName trims name and rejects blanks.
func RequireName(field, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Field: field, Reason: "must not be blank"}
	}
	return trimmed, nil
}

// RequireDimension rejects zero, negative, NaN and infinite measurements.
func RequireDimension(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Reason: "must be a number"}
	}
	if v <= 0 {
		return &ValidationError{Field: field, Reason: "must be greater than zero"}
	}
	return nil
}

// RequireDate accepts an ISO calendar date and returns it normalized.
func RequireDate(field, raw string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", &ValidationError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return t.Format(DateLayout), nil
}

// NormalizeMonths drops values outside 1..12 and duplicates, returning a
// sorted non-nil slice plus the number of values dropped.
func NormalizeMonths(in []int) ([]int, int) {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	dropped := 0
	for _, m := range in {
		if m < 1 || m > 12 {
			dropped++
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Ints(out)
	return out, dropped
}

// HasMonth reports whether months contains m.
func HasMonth(months []int, m int) bool {
	for _, v := range months {
		if v == m {
			return true
		}
	}
	return false
}
