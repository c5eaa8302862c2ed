package persist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/fsops"
	"github.com/ttbud/ttbud-sub001/internal/grid"
)

func TestSnapshotManager_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	mgr := NewSnapshotManager(fsops.NewRealFS(), dir)
	tokens := []board.Token{
		{ID: "a", Kind: board.KindFloor, IconRef: "stone-floor", Pos: grid.Pos{X: 0, Y: 50}},
		{ID: "b", Kind: board.KindCharacter, IconRef: "archer", Pos: grid.Pos{X: 100, Y: 50}},
	}

	if err := mgr.Save("table.json", "table", tokens); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "table.json")); err != nil {
		t.Fatalf("snapshot not written under dir: %v", err)
	}

	got, err := mgr.Load("table.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0] != tokens[0] || got[1] != tokens[1] {
		t.Errorf("Load() = %+v, want %+v", got, tokens)
	}
}

func TestSnapshotManager_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	mgr := NewSnapshotManager(fsops.NewRealFS(), "")

	if err := mgr.Save(path, "", nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"tokens": []`) {
		t.Errorf("empty snapshot encoded as %s", data)
	}
}

func TestSnapshotManager_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	mgr := NewSnapshotManager(fsops.NewRealFS(), dir)

	if _, err := mgr.Load("missing.json"); err == nil {
		t.Error("Load(missing) error = nil")
	}

	_ = os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0644)
	if _, err := mgr.Load("garbage.json"); err == nil {
		t.Error("Load(garbage) error = nil")
	}

	_ = os.WriteFile(filepath.Join(dir, "future.json"), []byte(`{"version": 9, "tokens": []}`), 0644)
	if _, err := mgr.Load("future.json"); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("Load(future) error = %v, want version error", err)
	}
}
