package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingT struct {
	testing.TB
	failed  bool
	message string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.failed = true
	r.message = format
}

func writeGo(t *testing.T, path, src string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred ImportPredicate
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "example.com/mod/internal/x", true},
		{"internal-pkg", InternalImportForbidden, "example.com/mod/pkg/x", false},
		{"infra", InfraImportForbidden, "example.com/mod/internal/infra/blob/s3", true},
		{"infra-root", InfraImportForbidden, "example.com/mod/internal/infra", true},
		{"infra-core", InfraImportForbidden, "example.com/mod/internal/core", false},
		{"domain", DomainImportForbidden, "example.com/mod/pkg/domain", true},
		{"domain-like", DomainImportForbidden, "example.com/mod/pkg/domainx", false},
		{"any", AnyOf(DomainImportForbidden, InfraImportForbidden), "example.com/mod/pkg/domain", true},
		{"none", AnyOf(), "fmt", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImportsIgnoresTestsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, filepath.Join(dir, "a.go"), "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}\n")
	writeGo(t, filepath.Join(dir, "a_test.go"), "package tmp\nimport \"example.com/mod/internal/infra/x\"\n")
	writeGo(t, filepath.Join(dir, "sub", "b.go"), "package sub\nimport \"example.com/mod/internal/infra/x\"\n")

	AssertNoDirectImports(t, dir, InfraImportForbidden, "direct only")

	rec := &recordingT{TB: t}
	AssertNoImportsInTree(rec, dir, InfraImportForbidden, "whole tree")
	if !rec.failed || !strings.Contains(rec.message, "forbidden imports") {
		t.Fatalf("expected the nested import to be reported")
	}
}

func TestImportViolationsReportsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, filepath.Join(dir, "p", "x.go"), "package p\nimport (\n\t\"example.com/mod/pkg/domain\"\n\t\"fmt\"\n)\n")
	writeGo(t, filepath.Join(dir, "testdata", "y.go"), "package y\nimport \"example.com/mod/pkg/domain\"\n")
	viols, err := importViolations(dir, true, DomainImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "example.com/mod/pkg/domain (in p/x.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}
	if _, err := importViolations(filepath.Join(dir, "missing"), true, DomainImportForbidden); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
