// Simulation ties together the city systems and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/economy"
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/social"
	"github.com/talgya/civic-sim/internal/world"
)

// ErrGameOver is returned by Tick and by commands once the city has fallen.
var ErrGameOver = errors.New("game over")

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownAgent = errors.New("unknown agent")
)

// Simulation holds the complete city state. All exported methods are safe for
// concurrent use; ticks and commands are serialized by one lock.
type Simulation struct {
	mu sync.RWMutex

	cfg      Config
	injected entropy.Source
	rng      entropy.Source

	clock     agents.Clock
	tick      uint64
	speed     float64
	citizens  []*agents.Citizen
	byID      map[string]*agents.Citizen
	cursor    int
	removals  int
	spawner   *agents.Spawner
	families  *social.Registry
	districts *world.Registry
	policy    *policy.Store
	ledger    *economy.Ledger
	events    *EventLog

	counters   Counters
	stats      Stats
	birthRate  float64
	crowded    bool
	gameOver   bool
	lastDay    int
	onGameOver func(Stats)
}

// NewSimulation builds a city from cfg. A nil src seeds a source from cfg.Seed;
// a non-nil src is reused by every Reset.
func NewSimulation(cfg Config, src entropy.Source) *Simulation {
	s := &Simulation{cfg: cfg.withDefaults(), injected: src}
	s.build()
	return s
}

func (s *Simulation) build() {
	cfg := s.cfg
	s.rng = s.injected
	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = entropy.CryptoSeed()
		}
		s.rng = entropy.New(seed)
	}

	s.clock = agents.Clock{TicksPerDay: cfg.TicksPerDay, TicksPerYear: cfg.TicksPerYear}
	s.tick = 0
	s.speed = cfg.Speed
	s.citizens = nil
	s.byID = make(map[string]*agents.Citizen)
	s.cursor = 0
	s.removals = 0
	s.spawner = agents.NewSpawner(s.rng)
	s.families = social.NewRegistry(s.rng)
	s.districts = world.NewRegistry(world.DefaultDistricts())
	s.policy = policy.NewStore()
	s.ledger = economy.NewLedger(cfg.Economy)
	var seq uint64
	if s.events != nil {
		seq = s.events.LastSeq()
	}
	s.events = NewEventLog(cfg.EventCap)
	s.events.seq = seq
	s.counters = Counters{}
	s.birthRate = 1
	s.crowded = false
	s.gameOver = false
	s.lastDay = 0

	for _, d := range s.districts.All() {
		s.add(s.spawner.SpawnPopulation(cfg.PopPerDistrict, d, s.clock)...)
	}
	s.recount()
	s.districts.Recompute(s.policy.Snapshot().SecurityBudget)
	s.stats = s.computeStats()

	slog.Info("city founded",
		"population", len(s.citizens),
		"districts", s.districts.Len(),
		"budget", s.ledger.Budget(),
	)
}

// Reset rebuilds every component from the stored config and seed.
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.build()
	s.emit("The city has been reset", CatSystem, nil)
	slog.Info("simulation reset", "population", len(s.citizens))
}

// OnGameOver registers a hook called once, under the lock, when the city falls.
// The hook must not call back into the Simulation synchronously.
func (s *Simulation) OnGameOver(fn func(Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onGameOver = fn
}

// AddCitizens registers already-built citizens with the population.
func (s *Simulation) AddCitizens(cs ...*agents.Citizen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(cs...)
	s.recount()
	s.stats = s.computeStats()
}

func (s *Simulation) add(cs ...*agents.Citizen) {
	for _, c := range cs {
		s.citizens = append(s.citizens, c)
		s.byID[c.ID] = c
	}
}

// flushDeaths removes dead citizens collected during the batch. The cursor
// moves back by the removals below it so it keeps pointing at the same citizen.
func (s *Simulation) flushDeaths() {
	if s.removals == 0 {
		return
	}
	n, before := 0, 0
	for i, c := range s.citizens {
		if c.Alive {
			s.citizens[n] = c
			n++
			continue
		}
		if i < s.cursor {
			before++
		}
		delete(s.byID, c.ID)
	}
	for i := n; i < len(s.citizens); i++ {
		s.citizens[i] = nil
	}
	s.citizens = s.citizens[:n]
	s.removals = 0
	s.cursor -= before
	if s.cursor >= n {
		s.cursor = 0
	}
}

func (s *Simulation) recount() {
	counts := make(map[string]int, s.districts.Len())
	for _, c := range s.citizens {
		if c.Alive {
			counts[c.District]++
		}
	}
	s.districts.Recount(counts)
}

func (s *Simulation) emit(desc, category string, meta map[string]any) {
	s.events.Append(Event{Tick: s.tick, Description: desc, Category: category, Meta: meta})
}

func (s *Simulation) emitAdvisories(adv []policy.Advisory) {
	for _, a := range adv {
		s.emit(a.Message, a.Category, nil)
	}
}

// CurrentTick returns the number of ticks processed since the last reset.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// GameOver reports whether the simulation has halted.
func (s *Simulation) GameOver() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameOver
}

// Stats returns the last published statistics snapshot.
func (s *Simulation) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Economy returns a copy of the ledger.
func (s *Simulation) Economy() economy.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot()
}

// Policy returns the current policy snapshot.
func (s *Simulation) Policy() policy.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.Snapshot()
}

// PolicyHistory returns recorded slider changes, oldest first.
func (s *Simulation) PolicyHistory() []policy.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.History()
}

// DistrictView is a district plus its scores and economy.
type DistrictView struct {
	world.District
	Scores  world.Stats             `json:"scores"`
	Economy economy.DistrictEconomy `json:"economy"`
}

// Districts returns copies of every district with scores and economy.
func (s *Simulation) Districts() []DistrictView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec := s.policy.Snapshot().SecurityBudget
	econ := s.ledger.Snapshot().Districts
	scores := s.districts.Stats(sec)
	out := make([]DistrictView, 0, s.districts.Len())
	for i, d := range s.districts.All() {
		out = append(out, DistrictView{District: *d, Scores: scores[i], Economy: econ[d.ID]})
	}
	return out
}

// RecentEvents returns up to n events, newest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.Recent(n)
}

// EventsSince returns retained events with a sequence number above seq.
func (s *Simulation) EventsSince(seq uint64) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.Since(seq)
}

// LastEventSeq is the sequence number of the newest event.
func (s *Simulation) LastEventSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.LastSeq()
}

// AgentDetail returns the human-readable view of a live citizen.
func (s *Simulation) AgentDetail(id string) (agents.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail(id)
}

func (s *Simulation) detail(id string) (agents.Detail, error) {
	c, ok := s.byID[id]
	if !ok || !c.Alive {
		return agents.Detail{}, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return c.Detail(), nil
}

// CitizenIDs returns up to n live citizen ids in population order.
func (s *Simulation) CitizenIDs(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.citizens) {
		n = len(s.citizens)
	}
	ids := make([]string, 0, n)
	for _, c := range s.citizens[:n] {
		ids = append(ids, c.ID)
	}
	return ids
}

// Families returns the number of registered families.
func (s *Simulation) Families() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.families.Len()
}

// Family returns a copy of a family record.
func (s *Simulation) Family(id string) (social.Family, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := s.families.Get(id)
	if f == nil {
		return social.Family{}, false
	}
	out := *f
	out.ChildIDs = append([]string(nil), f.ChildIDs...)
	return out, true
}

// Clock returns the simulation clock.
func (s *Simulation) Clock() agents.Clock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// Speed returns the global speed multiplier.
func (s *Simulation) Speed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speed
}
