// Package config loads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/talgya/civic-sim/internal/economy"
	"github.com/talgya/civic-sim/internal/engine"
)

// Config is the typed process configuration.
type Config struct {
	Seed           int64   `env:"CITYSIM_SEED" envDefault:"42"`
	PopPerDistrict int     `env:"CITYSIM_POP_PER_DISTRICT" envDefault:"500"`
	BatchSize      int     `env:"CITYSIM_BATCH_SIZE" envDefault:"1000"`
	LowWatermark   int     `env:"CITYSIM_LOW_WATERMARK" envDefault:"1000"`
	HighWatermark  int     `env:"CITYSIM_HIGH_WATERMARK" envDefault:"6000"`
	MigrantBatch   int     `env:"CITYSIM_MIGRANT_BATCH" envDefault:"100"`
	TicksPerDay    float64 `env:"CITYSIM_TICKS_PER_DAY" envDefault:"96"`
	TicksPerYear   float64 `env:"CITYSIM_TICKS_PER_YEAR" envDefault:"960"`
	StatsEvery     uint64  `env:"CITYSIM_STATS_EVERY" envDefault:"10"`
	EventCap       int     `env:"CITYSIM_EVENT_CAP" envDefault:"200"`
	GameOverPct    float64 `env:"CITYSIM_GAME_OVER_PCT" envDefault:"50"`
	Speed          float64 `env:"CITYSIM_SPEED" envDefault:"1"`
	RandomEvents   bool    `env:"CITYSIM_RANDOM_EVENTS" envDefault:"true"`

	TickInterval time.Duration `env:"CITYSIM_TICK_INTERVAL" envDefault:"100ms"`

	InitialBudget     float64 `env:"CITYSIM_INITIAL_BUDGET" envDefault:"50000000"`
	WelfarePerCitizen float64 `env:"CITYSIM_WELFARE_PER_CITIZEN" envDefault:"240"`

	DBPath        string        `env:"CITYSIM_DB_PATH"` // Unset means DefaultDBPath; set but empty disables the archive
	APIAddr       string        `env:"CITYSIM_API_ADDR" envDefault:":8080"`
	AdminKey      string        `env:"CITYSIM_ADMIN_KEY"`
	CommandRate   int           `env:"CITYSIM_COMMAND_RATE" envDefault:"60"`
	CommandWindow time.Duration `env:"CITYSIM_COMMAND_WINDOW" envDefault:"1m"`
	LogLevel      string        `env:"CITYSIM_LOG_LEVEL" envDefault:"info"`
}

// DefaultDBPath is the archive location when CITYSIM_DB_PATH is unset.
const DefaultDBPath = "data/citysim.db"

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}
	return Parse(env.Options{})
}

// Parse parses the environment with the given options. Tests pass
// Options.Environment to avoid touching the process environment.
func Parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if !isSet(opts, "CITYSIM_DB_PATH") {
		cfg.DBPath = DefaultDBPath
	}
	return cfg, nil
}

func isSet(opts env.Options, key string) bool {
	if opts.Environment != nil {
		_, ok := opts.Environment[key]
		return ok
	}
	_, ok := os.LookupEnv(key)
	return ok
}

// SimulationConfig converts to the in-process simulation config.
func (c Config) SimulationConfig() engine.Config {
	return engine.Config{
		Seed:           c.Seed,
		PopPerDistrict: c.PopPerDistrict,
		BatchSize:      c.BatchSize,
		LowWatermark:   c.LowWatermark,
		HighWatermark:  c.HighWatermark,
		MigrantBatch:   c.MigrantBatch,
		TicksPerDay:    c.TicksPerDay,
		TicksPerYear:   c.TicksPerYear,
		StatsEvery:     c.StatsEvery,
		EventCap:       c.EventCap,
		GameOverPct:    c.GameOverPct,
		Speed:          c.Speed,
		TickInterval:   c.TickInterval,
		RandomEvents:   c.RandomEvents,
		Economy: economy.Config{
			InitialBudget:     c.InitialBudget,
			WelfarePerCitizen: c.WelfarePerCitizen,
			Seed:              c.Seed,
		},
	}
}

// Level maps LogLevel to a slog level. Unknown names fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
