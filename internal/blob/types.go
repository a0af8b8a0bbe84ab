// Package blob is the entry point for export archives. Callers depend on the
// Store interface re-exported here; backends live under internal/infra/blob.
package blob

import (
	"gardenplanner/internal/blob/core"
)

type (
	// Driver identifies an archive backend.
	Driver = core.Driver
	// PutOptions configures a write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures download links.
	SignedURLOptions = core.SignedURLOptions
	// Info describes a stored export.
	Info = core.Info
	// Store is implemented by every archive backend.
	Store = core.Store
)

const (
	// DriverFilesystem is the local directory driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-process driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrUnsupported indicates a capability the driver lacks.
	ErrUnsupported = core.ErrUnsupported
	// ErrExists is returned when writing over an existing key.
	ErrExists = core.ErrExists
	// ErrNotFound is returned for unknown keys.
	ErrNotFound = core.ErrNotFound
)
