// Package persist saves and loads board snapshots as JSON files.
//
// Snapshots seed offline sessions and record the result of a replay. They are
// a convenience for the local user only; the board's shared state lives with
// the relay.
package persist

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/fsops"
)

// snapshotFile is the on-disk layout.
type snapshotFile struct {
	Version int           `json:"version"`
	BoardID string        `json:"board_id,omitempty"`
	Tokens  []board.Token `json:"tokens"`
}

const snapshotVersion = 1

// SnapshotManager reads and writes snapshot files.
type SnapshotManager struct {
	fs  fsops.FS
	dir string
}

// NewSnapshotManager creates a SnapshotManager. Relative paths are resolved
// against dir.
func NewSnapshotManager(fs fsops.FS, dir string) *SnapshotManager {
	return &SnapshotManager{fs: fs, dir: dir}
}

func (s *SnapshotManager) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// Save writes tokens to path.
func (s *SnapshotManager) Save(path, boardID string, tokens []board.Token) error {
	if tokens == nil {
		tokens = []board.Token{}
	}
	data, err := json.MarshalIndent(snapshotFile{
		Version: snapshotVersion,
		BoardID: boardID,
		Tokens:  tokens,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.fs.AtomicWrite(s.resolve(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads tokens from path. Tokens are returned as stored; validation
// happens when they are seeded into a board.
func (s *SnapshotManager) Load(path string) ([]board.Token, error) {
	full := s.resolve(path)

	exists, err := s.fs.Exists(full)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("snapshot %q not found", full)
	}

	data, err := s.fs.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", file.Version)
	}
	return file.Tokens, nil
}
