package domain

import "sort"

// FavoriteSet is the set of plant ids marked as "my plants".
type FavoriteSet map[string]struct{}

// NewFavoriteSet builds a set from ids, ignoring blanks and duplicates.
func NewFavoriteSet(ids ...string) FavoriteSet {
	set := make(FavoriteSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains reports membership. A nil set contains nothing.
func (s FavoriteSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle adds id when absent and removes it when present, returning whether
// id is a member afterwards.
func (s FavoriteSet) Toggle(id string) bool {
	if _, ok := s[id]; ok {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the members sorted ascending.
func (s FavoriteSet) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s FavoriteSet) Clone() FavoriteSet {
	out := make(FavoriteSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
