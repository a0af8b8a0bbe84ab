package domain

import (
	"math"
	"reflect"
	"testing"
)

func TestRequireName(t *testing.T) {
	if got, err := RequireName("name", "  Pallkrage 1 "); err != nil || got != "Pallkrage 1" {
		t.Fatalf("RequireName = %q, %v", got, err)
	}
	if _, err := RequireName("name", " \t"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireDimension(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := RequireDimension("width", v); !IsValidation(err) {
			t.Fatalf("RequireDimension(%v) = %v", v, err)
		}
	}
	if err := RequireDimension("width", 1.2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireDate(t *testing.T) {
	if got, err := RequireDate("date", "2025-04-01"); err != nil || got != "2025-04-01" {
		t.Fatalf("RequireDate = %q, %v", got, err)
	}
	if _, err := RequireDate("date", "01/04/2025"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeMonths(t *testing.T) {
	got, dropped := NormalizeMonths([]int{5, 0, 4, 13, 5})
	if !reflect.DeepEqual(got, []int{4, 5}) || dropped != 2 {
		t.Fatalf("NormalizeMonths = %v, %d", got, dropped)
	}
	empty, _ := NormalizeMonths(nil)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}
