// Package engine provides the city simulation and the wall-clock loop that
// drives it.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Engine drives a simulation forward on a wall-clock interval.
type Engine struct {
	Interval time.Duration // Wall-clock time between ticks

	// TicksPerDay is how many engine ticks make one OnDay call.
	TicksPerDay uint64

	// Callbacks, populated during setup.
	OnTick func(tick uint64) error // Every tick
	OnDay  func(tick uint64)       // Every TicksPerDay ticks

	tick   atomic.Uint64
	paused atomic.Bool
}

// NewEngine creates an engine with default settings.
func NewEngine(interval time.Duration, ticksPerDay uint64) *Engine {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if ticksPerDay == 0 {
		ticksPerDay = 96
	}
	return &Engine{Interval: interval, TicksPerDay: ticksPerDay}
}

// Run ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "interval", e.Interval)
	t := time.NewTicker(e.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.tick.Load())
			return
		case <-t.C:
			if e.paused.Load() {
				continue
			}
			e.step()
		}
	}
}

// Pause suspends ticking until Resume.
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume continues after Pause.
func (e *Engine) Resume() { e.paused.Store(false) }

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool { return e.paused.Load() }

// Tick returns the number of engine ticks run.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// step advances by one tick.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	if e.OnTick != nil {
		if err := e.OnTick(tick); err != nil {
			slog.Debug("tick skipped", "tick", tick, "error", err)
		}
	}

	if tick%e.TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(tick)
	}
}
