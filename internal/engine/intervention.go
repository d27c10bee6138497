// Commands from the presentation layer: policy sliders, construction, city and
// life events, economic and district policies, speed. Commands that cost money
// fail without side effects on insufficient funds and post a warning.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/economy"
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/scale"
	"github.com/talgya/civic-sim/internal/world"
)

// MaxSpeed caps the global speed multiplier.
const MaxSpeed = 10

// SetPolicy applies a partial slider update. Values are clamped, never rejected.
func (s *Simulation) SetPolicy(u policy.Update) policy.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitAdvisories(s.policy.Apply(u, s.tick))
	snap := s.policy.Snapshot()
	slog.Info("policy updated",
		"tax", snap.TaxRate,
		"education", snap.EducationBudget,
		"health", snap.HealthBudget,
		"security", snap.SecurityBudget,
		"infrastructure", snap.InfrastructureBudget,
	)
	return snap
}

// ActivateSpecial turns on a one-shot special policy. Activating it again is a no-op.
func (s *Simulation) ActivateSpecial(name string) (string, error) {
	p, err := policy.ParseSpecial(name)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}

	activated, adv := s.policy.Activate(p, s.tick)
	if !activated {
		return fmt.Sprintf("%s is already active", p), nil
	}
	if p == policy.GreenEnergy {
		s.districts.PollutionDownAll()
	}
	s.emitAdvisories(adv)
	slog.Info("special policy activated", "policy", p)
	return fmt.Sprintf("%s activated", p), nil
}

// Build pays for and constructs a facility in a district.
func (s *Simulation) Build(districtID, facility string) (string, error) {
	f, err := world.ParseFacility(facility)
	if err != nil {
		return "", err
	}
	cost, err := economy.Cost(f)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}
	d, err := s.districts.Get(districtID)
	if err != nil {
		return "", err
	}
	if err := s.spend(cost, fmt.Sprintf("a %s in %s", f, d.Name)); err != nil {
		return "", err
	}
	desc, err := s.districts.Build(districtID, f)
	if err != nil {
		s.ledger.Credit(cost)
		return "", err
	}
	s.emit(desc, CatDevelopment, map[string]any{"district_id": districtID, "facility": string(f), "cost": cost})
	slog.Info("facility built", "district", districtID, "facility", f, "cost", cost)
	return desc, nil
}

// spend deducts from the budget, posting a warning on failure.
func (s *Simulation) spend(amount float64, what string) error {
	err := s.ledger.Spend(amount, what)
	if errors.Is(err, economy.ErrInsufficientFunds) {
		s.emit(fmt.Sprintf("Not enough budget for %s! Need $%s", what, humanize.Comma(int64(amount))), CatWarning, nil)
	}
	return err
}

type cityEvent struct {
	name      string
	cost      float64
	happiness float64
	food      float64
	fun       float64
}

var cityEvents = map[string]cityEvent{
	"music_festival":    {name: "music festival", cost: 500_000, happiness: 15, fun: 30},
	"sport_event":       {name: "sports tournament", cost: 300_000, happiness: 10},
	"cultural_festival": {name: "cultural festival", cost: 400_000, happiness: 12, fun: 30},
	"fireworks":         {name: "fireworks show", cost: 200_000, happiness: 8},
	"free_food":         {name: "free food drive", cost: 800_000, happiness: 20, food: 50},
}

// CityEvent pays for a public event that cheers up every citizen.
func (s *Simulation) CityEvent(kind string) (string, error) {
	ev, ok := cityEvents[kind]
	if !ok {
		return "", fmt.Errorf("%w: city event %q", ErrUnknownEvent, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}
	if err := s.spend(ev.cost, "the "+ev.name); err != nil {
		return "", err
	}
	for _, c := range s.citizens {
		c.Happiness = scale.Clamp100(c.Happiness + ev.happiness*entropy.Uniform(s.rng, 0.5, 1))
		c.Needs.Boost(ev.food, ev.fun)
	}
	desc := fmt.Sprintf("The %s was a success! Citizens are happier", ev.name)
	s.emit(desc, CatEvent, map[string]any{"event": kind, "cost": ev.cost})
	slog.Info("city event", "event", kind, "cost", ev.cost)
	return desc, nil
}

// Life events.
const (
	LifeBabyBoom        = "baby_boom"
	LifeEpidemic        = "epidemic"
	LifeMassMigration   = "mass_migration"
	LifeAgingPopulation = "aging_population"
)

// LifeEvent triggers a demographic event.
func (s *Simulation) LifeEvent(kind string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}
	return s.lifeEvent(kind)
}

func (s *Simulation) lifeEvent(kind string) (string, error) {
	var desc string
	switch kind {
	case LifeBabyBoom:
		born := s.babyBoom()
		desc = fmt.Sprintf("Baby boom! %d babies were born", born)
	case LifeEpidemic:
		affected := len(s.citizens) * 5 / 100
		for _, c := range s.citizens {
			c.Health = scale.Clamp100(c.Health - s.rng.Float64()*30)
			c.Happiness = scale.Clamp100(c.Happiness - 10)
		}
		desc = fmt.Sprintf("An epidemic broke out! An estimated %s citizens may be affected", humanize.Comma(int64(affected)))
	case LifeMassMigration:
		batch := max(s.cfg.MigrantBatch, 1)
		count := batch * (20 + s.rng.Intn(50))
		s.migrate(count)
		desc = fmt.Sprintf("%s people moved to the city looking for work", humanize.Comma(int64(count)))
	case LifeAgingPopulation:
		for _, c := range s.citizens {
			if c.Stage == agents.Adult {
				c.MaxLifespan = min(c.MaxLifespan+5, agents.MaxLifespan)
			}
		}
		desc = "The population is aging! Elder care needs more support"
	default:
		return "", fmt.Errorf("%w: life event %q", ErrUnknownEvent, kind)
	}
	s.recount()
	s.emit(desc, CatEvent, map[string]any{"event": kind})
	slog.Info("life event", "event", kind)
	return desc, nil
}

// babyBoom gives each eligible married citizen a 10% chance of a child.
func (s *Simulation) babyBoom() int {
	w := society{s}
	parents := append([]*agents.Citizen(nil), s.citizens...)
	born := 0
	for _, c := range parents {
		if !c.Alive || c.MaritalStatus != agents.Married || c.Age < 20 || c.Age > 45 || len(c.ChildrenIDs) >= 3 {
			continue
		}
		if !entropy.Bernoulli(s.rng, 0.1) {
			continue
		}
		spouse := w.Lookup(c.SpouseID)
		if spouse == nil {
			continue
		}
		child := w.Bear(c, spouse)
		c.ChildrenIDs = append(c.ChildrenIDs, child.ID)
		spouse.ChildrenIDs = append(spouse.ChildrenIDs, child.ID)
		born++
	}
	return born
}

// EconomicPolicy applies a city-wide economic policy.
func (s *Simulation) EconomicPolicy(kind string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}
	desc, err := s.ledger.ApplyPolicy(kind, s.citizens)
	if err != nil {
		if errors.Is(err, economy.ErrInsufficientFunds) {
			s.emit(fmt.Sprintf("Not enough budget for the %s", kind), CatWarning, nil)
		}
		return "", err
	}
	s.emit(desc, CatEconomic, map[string]any{"policy": kind})
	slog.Info("economic policy", "policy", kind, "budget", s.ledger.Budget())
	return desc, nil
}

// DistrictPolicy applies a district-level policy.
func (s *Simulation) DistrictPolicy(districtID string, action world.PolicyAction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameOver {
		return "", ErrGameOver
	}
	desc, err := s.districts.ApplyPolicy(districtID, action)
	if err != nil {
		return "", err
	}
	s.emit(desc, CatPolicy, map[string]any{"district_id": districtID, "policy": action.Kind})
	slog.Info("district policy", "district", districtID, "policy", action.Kind, "value", action.Value)
	return desc, nil
}

// SetSpeed sets the global speed multiplier, clamped to [0, MaxSpeed]. Zero pauses ticking.
func (s *Simulation) SetSpeed(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = scale.Clamp(v, 0, MaxSpeed)
	s.stats.Speed = s.speed
	slog.Info("speed changed", "speed", s.speed)
	return s.speed
}
