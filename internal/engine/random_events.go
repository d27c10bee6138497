package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/scale"
)

// randomEventChance is the per-tick chance of a random event at speed 1.
const randomEventChance = 0.0005

// Random event kinds.
const (
	RandomFactoryShutdown   = "factory_shutdown"
	RandomResourceDiscovery = "resource_discovery"
	RandomHeatWave          = "heat_wave"
	RandomBabyBoom          = "baby_boom"
	RandomEpidemic          = "epidemic"
	RandomScholarship       = "scholarship"
	RandomTechEmployer      = "tech_employer"
)

var randomEvents = []string{
	RandomFactoryShutdown,
	RandomResourceDiscovery,
	RandomHeatWave,
	RandomBabyBoom,
	RandomEpidemic,
	RandomScholarship,
	RandomTechEmployer,
}

const (
	resourceWindfall = 5_000_000
	shutdownLayoffs  = 5
	techHires        = 100
)

var techJob = agents.Job{
	Name:      "Software Developer",
	Salary:    1200,
	Education: agents.University,
	Sector:    agents.SectorTechnology,
	MinAge:    22,
	MaxAge:    55,
}

func (s *Simulation) randomEvent() {
	if !entropy.Bernoulli(s.rng, randomEventChance*s.speed) {
		return
	}
	kind := randomEvents[entropy.Pick(s.rng, len(randomEvents))]
	s.triggerRandom(kind)
}

// TriggerRandomEvent fires one of the random city events on demand.
func (s *Simulation) TriggerRandomEvent(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return ErrGameOver
	}
	for _, k := range randomEvents {
		if k == kind {
			s.triggerRandom(kind)
			return nil
		}
	}
	return fmt.Errorf("%w: random event %q", ErrUnknownEvent, kind)
}

func (s *Simulation) triggerRandom(kind string) {
	slog.Info("random event", "event", kind, "tick", s.tick)
	switch kind {
	case RandomFactoryShutdown:
		s.factoryShutdown()
	case RandomResourceDiscovery:
		s.ledger.Credit(resourceWindfall)
		s.emit("New oil field discovered! Budget increased by $5,000,000", CatEconomic, nil)
	case RandomHeatWave:
		for _, c := range s.citizens {
			if entropy.Bernoulli(s.rng, 0.1) {
				c.Health = scale.Clamp100(c.Health - 10)
			}
		}
		s.emit("A record heat wave is affecting citizens' health", CatWarning, nil)
	case RandomBabyBoom:
		s.lifeEvent(LifeBabyBoom)
	case RandomEpidemic:
		s.lifeEvent(LifeEpidemic)
	case RandomScholarship:
		n := 0
		for _, c := range s.citizens {
			if c.Age < 30 && entropy.Bernoulli(s.rng, 0.05) && c.PursueEducation(s.rng) {
				n++
			}
		}
		s.emit(fmt.Sprintf("The university opened a free scholarship program; %d citizens enrolled", n), CatEvent, nil)
	case RandomTechEmployer:
		hired := 0
		for _, c := range s.citizens {
			if hired >= techHires {
				break
			}
			if c.IsUnemployed() && techJob.Qualifies(c.Age, c.Education) {
				c.Employ(techJob)
				hired++
			}
		}
		s.emit(fmt.Sprintf("A major tech company opened an office and hired %d graduates", hired), CatEconomic, nil)
	}
}

// factoryShutdown closes a factory in a random district and lays off some of
// its industrial workers.
func (s *Simulation) factoryShutdown() {
	all := s.districts.All()
	if len(all) == 0 {
		return
	}
	d := all[entropy.Pick(s.rng, len(all))]
	if d.Facilities.Factories <= 0 {
		return
	}
	d.Facilities.Factories--
	d.Businesses = max(0, d.Businesses-3)

	laid := 0
	for _, c := range s.citizens {
		if laid >= shutdownLayoffs {
			break
		}
		if c.District == d.ID && c.Job.Sector == agents.SectorIndustrial {
			c.Job = agents.Unemployed
			c.Income = 0
			laid++
		}
	}
	s.emit(fmt.Sprintf("A factory in %s shut down; %d workers lost their jobs", d.Name, laid), CatWarning,
		map[string]any{"district_id": d.ID, "laid_off": laid})
}
