// Command citysim runs the city population simulation and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/civic-sim/internal/api"
	"github.com/talgya/civic-sim/internal/config"
	"github.com/talgya/civic-sim/internal/engine"
	"github.com/talgya/civic-sim/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	// ── Archive ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	} else {
		slog.Warn("CITYSIM_DB_PATH empty, archive disabled")
	}

	var archiver *persistence.Archiver
	if db != nil {
		archiver = persistence.NewArchiver(db)
	}

	// ── Simulation ───────────────────────────────────────────────────
	simCfg := cfg.SimulationConfig()
	sim := engine.NewSimulation(simCfg, nil)
	st := sim.Stats()
	slog.Info("city founded", "population", st.Population, "budget", st.Budget, "seed", simCfg.Seed)

	archive := func() {
		if archiver == nil {
			return
		}
		if err := archiver.Archive(sim); err != nil {
			slog.Error("archive failed", "error", err)
		}
	}

	eng := engine.NewEngine(simCfg.TickInterval, uint64(simCfg.TicksPerDay))
	eng.OnTick = func(uint64) error { return sim.Tick() }
	eng.OnDay = func(uint64) { archive() }

	sim.OnGameOver(func(engine.Stats) {
		eng.Pause()
		go archive()
	})

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("CITYSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sim:           sim,
		Eng:           eng,
		DB:            db,
		Addr:          cfg.APIAddr,
		AdminKey:      cfg.AdminKey,
		CommandRate:   cfg.CommandRate,
		CommandWindow: cfg.CommandWindow,
	}
	apiServer.Start()

	// ── Start ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nCity is alive: %d citizens across %d districts.\n", st.Population, len(sim.Districts()))
	fmt.Printf("API: http://localhost%s/api/v1/status\n", cfg.APIAddr)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("API shutdown failed", "error", err)
	}

	slog.Info("final archive...")
	archive()
	fmt.Println("Simulation stopped.")
}
