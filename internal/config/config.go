package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation" envPrefix:"SIM_"`
	Physics    PhysicsConfig    `toml:"physics" envPrefix:"PHYSICS_"`
	Database   DatabaseConfig   `toml:"database" envPrefix:"DB_"`
	Scripting  ScriptingConfig  `toml:"scripting" envPrefix:"SCRIPTS_"`
	Data       DataConfig       `toml:"data" envPrefix:"DATA_"`
	Logging    LoggingConfig    `toml:"logging" envPrefix:"LOG_"`
	Metrics    MetricsConfig    `toml:"metrics" envPrefix:"METRICS_"`
}

type SimulationConfig struct {
	FixedDelta               time.Duration `toml:"fixed_delta" env:"FIXED_DELTA"`
	DivergenceTolerance      float64       `toml:"divergence_tolerance" env:"DIVERGENCE_TOLERANCE"`
	RewindMultiplier         float64       `toml:"rewind_multiplier" env:"REWIND_MULTIPLIER"`
	RewindDuration           time.Duration `toml:"rewind_duration" env:"REWIND_DURATION"`
	FastForwardStepsPerFrame int           `toml:"fast_forward_steps_per_frame" env:"FAST_FORWARD_STEPS"`
	MaxSteps                 int           `toml:"max_steps" env:"MAX_STEPS"` // headless safety cap
}

type PhysicsConfig struct {
	Gravity  float64 `toml:"gravity" env:"GRAVITY"`
	MaxFall  float64 `toml:"max_fall" env:"MAX_FALL"`
	CellSize int     `toml:"cell_size" env:"CELL_SIZE"`
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver" env:"DRIVER"` // "sqlite" or "postgres"
	DSN             string        `toml:"dsn" env:"DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

type ScriptingConfig struct {
	Dir     string `toml:"dir" env:"DIR"`
	Enabled bool   `toml:"enabled" env:"ENABLED"`
}

type DataConfig struct {
	LevelsDir string `toml:"levels_dir" env:"LEVELS_DIR"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"` // "json" or "console"
}

type MetricsConfig struct {
	Addr string `toml:"addr" env:"ADDR"` // empty disables the endpoint
}

// Load reads the toml file at path over the defaults, then applies REWIND_*
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration with environment overrides,
// for runs without a config file.
func Default() (*Config, error) {
	cfg := defaults()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "REWIND_"}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Simulation.FixedDelta <= 0 {
		return fmt.Errorf("simulation.fixed_delta must be positive")
	}
	if c.Simulation.DivergenceTolerance <= 0 {
		return fmt.Errorf("simulation.divergence_tolerance must be positive")
	}
	if c.Simulation.RewindDuration <= 0 || c.Simulation.RewindMultiplier <= 0 {
		return fmt.Errorf("simulation rewind settings must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			FixedDelta:               time.Second / 60,
			DivergenceTolerance:      0.75,
			RewindMultiplier:         10,
			RewindDuration:           time.Second,
			FastForwardStepsPerFrame: 20,
			MaxSteps:                 20000,
		},
		Physics: PhysicsConfig{
			Gravity:  30,
			MaxFall:  20,
			CellSize: 2,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "rewind.db",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripting: ScriptingConfig{
			Dir:     "scripts",
			Enabled: true,
		},
		Data: DataConfig{
			LevelsDir: "data/levels",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
