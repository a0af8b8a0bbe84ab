package domain

import (
	"reflect"
	"testing"
)

func TestFavoriteSetToggleIsInvolution(t *testing.T) {
	cases := []struct {
		name    string
		initial []string
		toggle  string
	}{
		{name: "absent", initial: []string{"p1"}, toggle: "p2"},
		{name: "present", initial: []string{"p1", "p2"}, toggle: "p2"},
		{name: "empty", initial: nil, toggle: "p1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := NewFavoriteSet(tc.initial...)
			before := set.Contains(tc.toggle)
			set.Toggle(tc.toggle)
			if set.Contains(tc.toggle) == before {
				t.Fatalf("single toggle did not flip membership")
			}
			set.Toggle(tc.toggle)
			if set.Contains(tc.toggle) != before {
				t.Fatalf("double toggle changed membership")
			}
			if !reflect.DeepEqual(set.IDs(), NewFavoriteSet(tc.initial...).IDs()) {
				t.Fatalf("double toggle changed set: %v", set.IDs())
			}
		})
	}
}

func TestFavoriteSetIgnoresBlankAndDuplicates(t *testing.T) {
	set := NewFavoriteSet("b", "", "a", "b")
	if got := set.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("IDs = %v", got)
	}
	var nilSet FavoriteSet
	if nilSet.Contains("a") {
		t.Fatalf("nil set must be empty")
	}
}
