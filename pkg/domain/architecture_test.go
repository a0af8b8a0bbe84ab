package domain

import (
	"testing"

	"gardenplanner/testutil"
)

// TestDomainDoesNotImportInternal keeps the domain layer free of implementation
// packages so registries and backends can depend on it without cycles.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain must not depend on internal packages")
}
