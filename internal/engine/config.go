package engine

import (
	"time"

	"github.com/talgya/civic-sim/internal/economy"
)

// Config is everything the simulation needs to build itself. Reset rebuilds
// from the same Config.
type Config struct {
	// Seed drives every random draw. Zero means a crypto-random seed.
	Seed int64

	PopPerDistrict int
	// BatchSize bounds how many citizens update per tick.
	BatchSize int

	// Below LowWatermark migrants arrive; above HighWatermark births slow down.
	LowWatermark  int
	HighWatermark int
	MigrantBatch  int

	TicksPerDay  float64
	TicksPerYear float64

	// StatsEvery is the published snapshot cadence in ticks.
	StatsEvery  uint64
	EventCap    int
	GameOverPct float64
	Speed       float64

	// TickInterval is the wall-clock time between ticks when run by an Engine.
	TickInterval time.Duration

	// RandomEvents enables the per-tick random city events.
	RandomEvents bool

	Economy economy.Config
}

// DefaultConfig returns the stock city.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		PopPerDistrict: 500,
		BatchSize:      1000,
		LowWatermark:   1000,
		HighWatermark:  6000,
		MigrantBatch:   100,
		TicksPerDay:    96,
		TicksPerYear:   960,
		StatsEvery:     10,
		EventCap:       200,
		GameOverPct:    50,
		Speed:          1,
		TickInterval:   100 * time.Millisecond,
		RandomEvents:   true,
		Economy:        economy.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.TicksPerDay <= 0 {
		c.TicksPerDay = d.TicksPerDay
	}
	if c.TicksPerYear <= 0 {
		c.TicksPerYear = d.TicksPerYear
	}
	if c.StatsEvery == 0 {
		c.StatsEvery = d.StatsEvery
	}
	if c.EventCap <= 0 {
		c.EventCap = d.EventCap
	}
	if c.GameOverPct <= 0 {
		c.GameOverPct = d.GameOverPct
	}
	if c.Speed <= 0 {
		c.Speed = d.Speed
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.Economy.InitialBudget == 0 && c.Economy.WelfarePerCitizen == 0 {
		c.Economy = d.Economy
	}
	return c
}
