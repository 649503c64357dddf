// Package config loads server configuration from YAML, falling back to
// defaults when the file is absent.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the simulation server.
type Server struct {
	// Simulation
	TickMS       int     `yaml:"tick_ms"`
	CorpseMS     int     `yaml:"corpse_ms"`
	TileSize     float64 `yaml:"tile_size"`
	Seed         uint64  `yaml:"seed"`
	SaveEverySec int     `yaml:"save_every_sec"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Persistence. An empty host disables the snapshot store.
	Database DatabaseConfig `yaml:"database"`

	// Balance table overrides; empty paths use the embedded defaults.
	Balance BalanceConfig `yaml:"balance"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Enabled reports whether a database host is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// BalanceConfig points at optional balance table files.
type BalanceConfig struct {
	Classes string `yaml:"classes"`
	Options string `yaml:"options"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		TickMS:       100,
		CorpseMS:     5000,
		TileSize:     32,
		SaveEverySec: 60,
		LogLevel:     "info",
		Database: DatabaseConfig{
			Port:     5432,
			User:     "emberfall",
			Password: "emberfall",
			DBName:   "emberfall",
			SSLMode:  "disable",
		},
	}
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
