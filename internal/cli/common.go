package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/config"
	"github.com/ttbud/ttbud-sub001/internal/fsops"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/persist"
	"github.com/ttbud/ttbud-sub001/internal/tray"
)

// env bundles what every board command needs.
type env struct {
	cfg       config.Config
	paths     *config.Paths
	snapshots *persist.SnapshotManager
}

// newEnv loads configuration and prepares the data directories.
func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	return &env{
		cfg:       cfg,
		paths:     paths,
		snapshots: persist.NewSnapshotManager(fsops.NewRealFS(), paths.Snapshots),
	}, nil
}

// logger returns a logger at the configured level writing to w.
func (e *env) logger(w io.Writer) *logging.Logger {
	return logging.New(w, logging.ParseLevel(e.cfg.Log.Level))
}

// openLogFile opens the log file used while the terminal UI owns the screen.
func (e *env) openLogFile() (*os.File, error) {
	path := filepath.Join(e.paths.Root, "ttbud.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// catalog returns the configured tray catalog.
func (e *env) catalog() (tray.Catalog, error) {
	if e.cfg.Tray.File == "" {
		return tray.Default(e.cfg.Grid.CellSize), nil
	}
	return tray.LoadFile(e.cfg.Tray.File, e.cfg.Grid.CellSize)
}

// tokenRows formats tokens for PrintTable.
func tokenRows(tokens []board.Token) [][]string {
	rows := make([][]string, 0, len(tokens))
	for _, t := range tokens {
		rows = append(rows, []string{
			string(t.ID),
			string(t.Kind),
			t.IconRef,
			strconv.Itoa(t.Pos.X),
			strconv.Itoa(t.Pos.Y),
		})
	}
	return rows
}

var tokenHeaders = []string{"ID", "KIND", "ICON", "X", "Y"}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// FormatError is used by main to report a failed command.
func FormatError(err error) string {
	return formatError(err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
