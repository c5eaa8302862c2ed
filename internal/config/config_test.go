package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points HOME at an empty dir so a developer's own config file does
// not leak into tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TTBUD_CONFIG", "")
	for _, key := range []string{"TTBUD_GRID_CELL_SIZE", "TTBUD_BOARD_ID", "TTBUD_SERVER_URL", "TTBUD_TRAY_FILE", "TTBUD_RELAY_ADDR", "TTBUD_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Grid.CellSize != 50 {
		t.Errorf("Grid.CellSize = %d, want 50", cfg.Grid.CellSize)
	}
	if cfg.Board.ID != "default" {
		t.Errorf("Board.ID = %q, want default", cfg.Board.ID)
	}
	if cfg.Relay.Addr != ":8080" {
		t.Errorf("Relay.Addr = %q, want :8080", cfg.Relay.Addr)
	}
	if !cfg.Offline() {
		t.Error("Offline() = false with no server configured")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "ttbud.toml")
	content := `
[grid]
cell_size = 32

[board]
id = "dungeon"

[server]
url = "http://localhost:9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TTBUD_CONFIG", path)
	t.Setenv("TTBUD_BOARD_ID", "cave")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Grid.CellSize != 32 {
		t.Errorf("Grid.CellSize = %d, want 32", cfg.Grid.CellSize)
	}
	if cfg.Board.ID != "cave" {
		t.Errorf("Board.ID = %q, want env override cave", cfg.Board.ID)
	}
	if cfg.Offline() {
		t.Error("Offline() = true with server.url set")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T)
	}{
		{
			name: "zero cell size",
			setup: func(t *testing.T) {
				t.Setenv("TTBUD_GRID_CELL_SIZE", "0")
			},
		},
		{
			name: "missing explicit config file",
			setup: func(t *testing.T) {
				t.Setenv("TTBUD_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			tt.setup(t)
			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}
