// Population scheduling: batched citizen updates, the shared society the
// citizens mutate, deferred death removal, and migration / birth control.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
)

// crowdedBirthRate scales childbirth while the population is above the high watermark.
const crowdedBirthRate = 0.5

// Tick advances the city by one tick: a batch of citizens, then the economy
// and districts over the whole population, then statistics, the game-over
// check, population control and random events. Once the city has fallen
// Tick mutates nothing and returns ErrGameOver until Reset.
func (s *Simulation) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gameOver {
		return ErrGameOver
	}
	if s.speed <= 0 {
		return nil
	}

	s.tick++
	s.clock.Elapsed += s.speed
	pol := s.policy.Snapshot()

	s.updateBatch(pol)
	s.flushDeaths()

	if rep := s.ledger.Update(s.citizens, s.districts, pol); rep.Bankrupt {
		s.emit(fmt.Sprintf("The city is bankrupt! %d public workers laid off", rep.LaidOff), CatWarning,
			map[string]any{"laid_off": rep.LaidOff})
		slog.Warn("city bankrupt", "tick", s.tick, "laid_off", rep.LaidOff, "population", len(s.citizens))
	}

	s.recount()
	s.districts.Recompute(pol.SecurityBudget)

	fresh := s.computeStats()
	if fresh.ProtestPct > s.cfg.GameOverPct {
		s.halt(fresh)
		return nil
	}
	if s.tick%s.cfg.StatsEvery == 0 {
		s.stats = fresh
	}

	s.controlPopulation()
	if s.cfg.RandomEvents {
		s.randomEvent()
	}

	if d := s.day(); d != s.lastDay {
		s.lastDay = d
		s.newDay()
	}
	return nil
}

// updateBatch updates up to BatchSize citizens starting at the rotating cursor.
// Citizens born during the batch are appended and wait for a later batch.
func (s *Simulation) updateBatch(pol policy.Snapshot) {
	n := len(s.citizens)
	if n == 0 {
		return
	}
	batch := min(s.cfg.BatchSize, n)
	ctx := &agents.Context{
		Clock:     s.clock,
		Policy:    pol,
		Speed:     s.speed,
		BirthRate: s.birthRate,
		Rand:      s.rng,
		Society:   society{s},
	}
	start := s.cursor
	for i := 0; i < batch; i++ {
		c := s.citizens[(start+i)%n]
		ctx.District = s.districts.Lookup(c.District)
		c.Update(ctx)
	}
	s.cursor = (start + batch) % n
}

func (s *Simulation) halt(st Stats) {
	s.gameOver = true
	st.GameOver = true
	s.stats = st
	s.emit(fmt.Sprintf("GAME OVER: %.0f%% of citizens are protesting", st.ProtestPct), CatWarning,
		map[string]any{"protest_pct": st.ProtestPct})
	slog.Warn("game over", "tick", s.tick, "protest_pct", st.ProtestPct, "population", st.Population)
	if s.onGameOver != nil {
		s.onGameOver(st)
	}
}

func (s *Simulation) newDay() {
	pruned := s.families.Prune(func(id string) bool {
		c, ok := s.byID[id]
		return ok && c.Alive
	})
	st := s.computeStats()
	slog.Info("daily report",
		"day", st.Day,
		"tick", s.tick,
		"population", st.Population,
		"avg_happiness", fmt.Sprintf("%.1f", st.AvgHappiness),
		"protest_pct", fmt.Sprintf("%.1f", st.ProtestPct),
		"unemployment", fmt.Sprintf("%.1f", st.Unemployment),
		"budget", humanize.Comma(int64(st.Budget)),
		"births", st.BirthsToday,
		"deaths", st.DeathsToday,
		"marriages", st.MarriagesToday,
		"families", st.Families,
		"families_pruned", pruned,
	)
	s.counters.newDay()
}

// controlPopulation injects migrants below the low watermark and halves the
// birth rate above the high watermark.
func (s *Simulation) controlPopulation() {
	n := len(s.citizens)
	if s.cfg.LowWatermark > 0 && n < s.cfg.LowWatermark && s.cfg.MigrantBatch > 0 {
		s.migrate(s.cfg.MigrantBatch)
	}

	crowded := s.cfg.HighWatermark > 0 && n > s.cfg.HighWatermark
	if crowded == s.crowded {
		return
	}
	s.crowded = crowded
	if crowded {
		s.birthRate = crowdedBirthRate
		s.emit("Population too high! Family planning measures are in effect", CatWarning, nil)
		slog.Info("birth control enabled", "population", n)
		return
	}
	s.birthRate = 1
	s.emit("Family planning measures lifted", CatPolicy, nil)
	slog.Info("birth control lifted", "population", n)
}

// migrate adds count adults spread uniformly across districts.
func (s *Simulation) migrate(count int) {
	all := s.districts.All()
	if len(all) == 0 || count <= 0 {
		return
	}
	for i := 0; i < count; i++ {
		d := all[entropy.Pick(s.rng, len(all))]
		s.add(s.spawner.Adult(d, s.clock))
	}
	s.recount()
	s.emit(fmt.Sprintf("%s new citizens migrated to the city", humanize.Comma(int64(count))), CatEvent,
		map[string]any{"count": count})
}

// society is the view of the simulation a citizen update mutates. Its methods
// run under the simulation lock.
type society struct{ s *Simulation }

func (w society) Lookup(id string) *agents.Citizen {
	if id == "" {
		return nil
	}
	c, ok := w.s.byID[id]
	if !ok || !c.Alive {
		return nil
	}
	return c
}

func (w society) Partners(c *agents.Citizen) []*agents.Citizen {
	var out []*agents.Citizen
	for _, p := range w.s.citizens {
		if p != c && p.Alive && p.District == c.District {
			out = append(out, p)
		}
	}
	return out
}

func (w society) Wed(a, b *agents.Citizen) {
	f := w.s.families.Create(a.ID, b.ID, a.Job.Name, b.Job.Name, w.s.tick)
	a.FamilyID, b.FamilyID = f.ID, f.ID
	w.s.counters.marriage()
	w.s.emit(fmt.Sprintf("A %s and a %s were married in %s", a.Job.Name, b.Job.Name, w.s.districtName(a.District)),
		CatMarriage, map[string]any{"family_id": f.ID})
}

func (w society) Bear(parent, other *agents.Citizen) *agents.Citizen {
	child := w.s.spawner.Child(parent, other, w.s.clock)
	if child.FamilyID != "" {
		w.s.families.AddChild(child.FamilyID, child.ID)
	}
	w.s.add(child)
	w.s.counters.birth()
	w.s.emit(fmt.Sprintf("A baby was born in %s", w.s.districtName(child.District)), CatBirth,
		map[string]any{"citizen_id": child.ID})
	return child
}

// Die widows the spouse immediately; removal from the population waits for
// the end of the batch.
func (w society) Die(c *agents.Citizen, cause agents.DeathCause) {
	if spouse := w.Lookup(c.SpouseID); spouse != nil && spouse.SpouseID == c.ID {
		spouse.Widow()
	}
	w.s.removals++
	w.s.counters.death()
	w.s.emit(fmt.Sprintf("A %d-year-old %s died of %s", c.Age, c.Job.Name, cause), CatDeath,
		map[string]any{"citizen_id": c.ID, "cause": string(cause)})
}

func (w society) Emit(message, category string) {
	w.s.emit(message, category, nil)
}

func (s *Simulation) districtName(id string) string {
	if d := s.districts.Lookup(id); d != nil {
		return d.Name
	}
	return id
}
