package blob

import (
	memorystore "gardenplanner/internal/infra/blob/memory"
)

// NewMemory returns an in-process archive.
func NewMemory() Store { return memorystore.New() }
