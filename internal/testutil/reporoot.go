// Package testutil locates repository fixtures from tests in any package.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// RepoRoot returns the repository root by walking up to the nearest go.mod.
func RepoRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("cannot determine caller")
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("go.mod not found")
}

// ShippedConfig returns the path of an experiment document under configs/,
// failing the test when it does not exist.
func ShippedConfig(t *testing.T, name string) string {
	t.Helper()
	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	path := filepath.Join(root, "configs", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("shipped config: %v", err)
	}
	return path
}

// ConfigFixture returns the path of a document under internal/config/testdata.
func ConfigFixture(t *testing.T, name string) string {
	t.Helper()
	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return filepath.Join(root, "internal", "config", "testdata", name)
}
