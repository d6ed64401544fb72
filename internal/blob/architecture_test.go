package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// infraOwners lists, per infra subtree, the only packages outside that
// subtree allowed to import it.
var infraOwners = map[string][]string{
	"kineticcore/internal/infra/blob":        {"kineticcore/internal/blob"},
	"kineticcore/internal/infra/persistence": {"kineticcore/internal/core"},
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func TestInfraImportedOnlyByOwners(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "kineticcore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for infra, owners := range infraOwners {
			if under(pkg.PkgPath, "kineticcore/internal/infra") || ownedBy(pkg.PkgPath, owners) {
				continue
			}
			for importPath := range pkg.Imports {
				if under(importPath, infra) {
					seen[pkg.PkgPath+" imports "+importPath] = struct{}{}
				}
			}
		}
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden infra import: %s", v)
	}
}

func ownedBy(path string, owners []string) bool {
	for _, o := range owners {
		if under(path, o) {
			return true
		}
	}
	return false
}
