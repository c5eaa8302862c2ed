package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("returns paths based on home directory", func(t *testing.T) {
		t.Setenv("TTBUD_ROOT", "")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}
		if filepath.Base(paths.Root) != ".ttbud" {
			t.Errorf("Root should end with .ttbud, got: %s", paths.Root)
		}
		if paths.Snapshots != filepath.Join(paths.Root, "snapshots") {
			t.Errorf("Snapshots path incorrect: got %s", paths.Snapshots)
		}
	})

	t.Run("respects TTBUD_ROOT environment variable", func(t *testing.T) {
		customRoot := "/custom/ttbud/path"
		t.Setenv("TTBUD_ROOT", customRoot)

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}
		if paths.Root != customRoot {
			t.Errorf("Expected root %s, got %s", customRoot, paths.Root)
		}
		if paths.Snapshots != filepath.Join(customRoot, "snapshots") {
			t.Errorf("Snapshots should be under custom root, got: %s", paths.Snapshots)
		}
	})
}

func TestEnsureDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ttbud")
	paths := &Paths{Root: root, Snapshots: filepath.Join(root, "snapshots")}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{paths.Root, paths.Snapshots} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	// Idempotent
	if err := paths.EnsureDirectories(); err != nil {
		t.Errorf("second EnsureDirectories failed: %v", err)
	}
}
