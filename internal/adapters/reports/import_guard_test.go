package reports

import (
	"testing"

	"kineticcore/testutil"
)

func TestNoInfraImports(t *testing.T) {
	testutil.AssertNoImportsInTree(t, ".", testutil.InfraImportForbidden,
		"the archiver works against blob.Store, not a concrete backend")
}
