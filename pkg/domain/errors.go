package domain

import (
	"errors"
	"fmt"
)

// ErrNotConfirmed is returned when the user declines a destructive action.
// State is left unchanged.
var ErrNotConfirmed = errors.New("action not confirmed")

// ErrNotLoaded is returned when a registry is written before its stored state
// has been read. Writing then would replace the stored snapshot with an empty
// one.
var ErrNotLoaded = errors.New("registry not loaded")

// ErrNotFound is returned when a mutation targets a record that does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError reports rejected user input. The triggering mutation is
// aborted before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ImportError reports an import file that could not be applied. Nothing is
// imported when it is returned.
type ImportError struct {
	Source string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("import failed: %v", e.Err)
	}
	return fmt.Sprintf("import %s failed: %v", e.Source, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// CatalogLoadError is fatal for the session: the catalog could not be fetched
// or decoded and is not retried.
type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
