package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ttbud/ttbud-sub001/internal/grid"
)

// Config holds application configuration.
type Config struct {
	Grid   GridConfig   `mapstructure:"grid"`
	Board  BoardConfig  `mapstructure:"board"`
	Server ServerConfig `mapstructure:"server"`
	Tray   TrayConfig   `mapstructure:"tray"`
	Relay  RelayConfig  `mapstructure:"relay"`
	Log    LogConfig    `mapstructure:"log"`
}

// GridConfig holds the board geometry. The cell size is fixed once a
// session starts.
type GridConfig struct {
	CellSize int `mapstructure:"cell_size"`
}

// BoardConfig selects the shared board to join.
type BoardConfig struct {
	ID string `mapstructure:"id"`
}

// ServerConfig points at a relay. An empty URL means offline play.
type ServerConfig struct {
	URL string `mapstructure:"url"`
}

// TrayConfig optionally replaces the built-in catalog.
type TrayConfig struct {
	File string `mapstructure:"file"`
}

// RelayConfig holds settings for `ttbud relay`.
type RelayConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Offline reports whether no relay is configured.
func (c Config) Offline() bool {
	return c.Server.URL == ""
}

// Validate checks values that would make a session unusable.
func (c Config) Validate() error {
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid.cell_size: %w", grid.ErrInvalidCellSize)
	}
	if c.Board.ID == "" {
		return fmt.Errorf("board.id must not be empty")
	}
	return nil
}

// Load reads configuration from file and env. Env var overrides use prefix TTBUD_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("grid.cell_size", grid.DefaultCellSize)
	v.SetDefault("board.id", "default")
	v.SetDefault("server.url", "")
	v.SetDefault("tray.file", "")
	v.SetDefault("relay.addr", ":8080")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TTBUD_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ttbud"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TTBUD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit config path that cannot be read is an error; a missing
		// default file is not.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
