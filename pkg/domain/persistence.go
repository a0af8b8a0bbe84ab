package domain

import "context"

// Storage keys. Each key holds the full JSON snapshot of one registry.
const (
	KeyFavorites = "myPlants"
	KeyYearPlans = "yearPlans"
	KeyBeds      = "myGardenBeds"
	KeyGardens   = "gardensData"
	KeyDesigns   = "visualDesigns"
)

// KnownKeys lists every key owned by a registry, in display order.
func KnownKeys() []string {
	return []string{KeyFavorites, KeyYearPlans, KeyBeds, KeyGardens, KeyDesigns}
}

// IsKnownKey reports whether key is owned by a registry.
func IsKnownKey(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// KeyValueStore is the persistence contract behind every registry: a flat
// namespace of keys holding raw JSON text. Writes replace the whole value; there
// are no partial updates and no transactions spanning keys.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Keys lists stored keys sorted ascending.
	Keys(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}
