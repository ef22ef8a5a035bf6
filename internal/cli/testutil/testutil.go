// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dalc/internal/testutil"
)

// SetupTestProject creates a temporary project holding the pigeon fixture
// schema (schema.yaml) and a dalc.yaml pointing at it with base package
// acme. It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	WriteFile(t, dir, "schema.yaml", string(testutil.PigeonsYAML()))
	WriteFile(t, dir, "dalc.yaml", "schema: schema.yaml\nbase_package: "+testutil.BasePackage+"\n")
	return dir
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
