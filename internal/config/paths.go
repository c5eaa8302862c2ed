// Package config manages ttbud configuration and filesystem paths.
//
// The default root is ~/.ttbud/ and holds saved board snapshots. The root can
// be moved with TTBUD_ROOT.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by ttbud.
type Paths struct {
	// Root is the base directory for all ttbud data (default: ~/.ttbud)
	Root string

	// Snapshots is the directory containing saved boards
	Snapshots string
}

// DefaultPaths returns the default paths for ttbud.
// Paths can be overridden with environment variables:
// - TTBUD_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("TTBUD_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".ttbud")
	}

	return &Paths{
		Root:      root,
		Snapshots: filepath.Join(root, "snapshots"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Snapshots} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
