// Package config loads server configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Clone effect policies. Controls which tile effects a replaying clone
// triggers when it enters a tile.
const (
	CloneEffectsSwitches = "switches" // press/release switches only
	CloneEffectsFull     = "full"     // switches, keys, locked doors, teleporters
)

// Server holds all configuration for the maze server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Simulation
	TickIntervalMs int    `yaml:"tick_interval_ms"`
	CloneEffects   string `yaml:"clone_effects"`
	GuardRadius    int    `yaml:"guard_radius"`
	GuardCooldown  int    `yaml:"guard_cooldown"`

	// Levels
	LevelsDir string `yaml:"levels_dir"`
	Level     string `yaml:"level"`

	// Storage
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds SQLite storage parameters.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Addr returns the host:port listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// TickInterval returns the simulation tick period.
func (s Server) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMs) * time.Millisecond
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:    "0.0.0.0",
		Port:           8080,
		TickIntervalMs: 200,
		CloneEffects:   CloneEffectsSwitches,
		GuardRadius:    5,
		GuardCooldown:  3,
		LevelsDir:      "levels",
		Level:          "tutorial",
		Database: DatabaseConfig{
			Path: "./maze.db",
		},
	}
}

// Validate checks that the loaded values make sense.
func (s Server) Validate() error {
	if s.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive, got %d", s.TickIntervalMs)
	}
	if s.CloneEffects != CloneEffectsSwitches && s.CloneEffects != CloneEffectsFull {
		return fmt.Errorf("clone_effects must be %q or %q, got %q",
			CloneEffectsSwitches, CloneEffectsFull, s.CloneEffects)
	}
	if s.GuardRadius < 0 {
		return fmt.Errorf("guard_radius must not be negative, got %d", s.GuardRadius)
	}
	return nil
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
