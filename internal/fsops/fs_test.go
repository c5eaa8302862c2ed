package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()
	path := filepath.Join(t.TempDir(), "nested", "board.json")

	if err := fs.AtomicWrite(path, []byte("first"), 0644); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}
	if err := fs.AtomicWrite(path, []byte("second"), 0600); err != nil {
		t.Fatalf("AtomicWrite() overwrite error = %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestRealFS_Exists(t *testing.T) {
	fs := NewRealFS()
	dir := t.TempDir()

	exists, err := fs.Exists(filepath.Join(dir, "missing"))
	if err != nil || exists {
		t.Errorf("Exists(missing) = %v, %v; want false, nil", exists, err)
	}

	if err := fs.MkdirAll(filepath.Join(dir, "a", "b"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	exists, err = fs.Exists(filepath.Join(dir, "a", "b"))
	if err != nil || !exists {
		t.Errorf("Exists(a/b) = %v, %v; want true, nil", exists, err)
	}
}
