package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 500, cfg.PopPerDistrict)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, 96.0, cfg.TicksPerDay)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "data/citysim.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Empty(t, cfg.AdminKey)
	assert.True(t, cfg.RandomEvents)
	assert.Equal(t, time.Minute, cfg.CommandWindow)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"CITYSIM_SEED":          "0",
		"CITYSIM_TICK_INTERVAL": "1s",
		"CITYSIM_DB_PATH":       "",
		"CITYSIM_ADMIN_KEY":     "hunter2",
		"CITYSIM_GAME_OVER_PCT": "35.5",
		"CITYSIM_RANDOM_EVENTS": "false",
	}})
	require.NoError(t, err)

	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Empty(t, cfg.DBPath, "explicit empty disables the archive")
	assert.Equal(t, "hunter2", cfg.AdminKey)
	assert.Equal(t, 35.5, cfg.GameOverPct)
	assert.False(t, cfg.RandomEvents)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(env.Options{Environment: map[string]string{"CITYSIM_BATCH_SIZE": "lots"}})
	assert.Error(t, err)
}

func TestSimulationConfig(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: map[string]string{
		"CITYSIM_SEED":           "9",
		"CITYSIM_INITIAL_BUDGET": "1000",
	}})
	require.NoError(t, err)

	sc := cfg.SimulationConfig()
	assert.Equal(t, int64(9), sc.Seed)
	assert.Equal(t, int64(9), sc.Economy.Seed)
	assert.Equal(t, 1000.0, sc.Economy.InitialBudget)
	assert.Equal(t, 240.0, sc.Economy.WelfarePerCitizen)
	assert.Equal(t, uint64(10), sc.StatsEvery)
}

func TestLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, Config{LogLevel: name}.Level())
		})
	}
}
