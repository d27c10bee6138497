package engine

import "github.com/talgya/civic-sim/internal/agents"

// Counters are life-event tallies. The *Today fields reset every sim-day.
type Counters struct {
	BirthsToday    int `json:"births_today"`
	DeathsToday    int `json:"deaths_today"`
	MarriagesToday int `json:"marriages_today"`
	Births         int `json:"total_births"`
	Deaths         int `json:"total_deaths"`
	Marriages      int `json:"total_marriages"`
}

func (c *Counters) birth()    { c.Births++; c.BirthsToday++ }
func (c *Counters) death()    { c.Deaths++; c.DeathsToday++ }
func (c *Counters) marriage() { c.Marriages++; c.MarriagesToday++ }

func (c *Counters) newDay() {
	c.BirthsToday, c.DeathsToday, c.MarriagesToday = 0, 0, 0
}

// Stats is the aggregate snapshot read by the presentation layer.
type Stats struct {
	Tick         uint64  `json:"tick"`
	Day          int     `json:"day"`
	Hour         float64 `json:"hour"`
	Population   int     `json:"population"`
	AvgHappiness float64 `json:"avg_happiness"`
	AvgHealth    float64 `json:"avg_health"`
	AvgAge       float64 `json:"avg_age"`
	Unemployment float64 `json:"unemployment"`
	Protesters   int     `json:"protesters"`
	ProtestPct   float64 `json:"protest_pct"`
	Children     int     `json:"children"`
	Married      int     `json:"married"`
	Families     int     `json:"families"`
	Budget       float64 `json:"budget"`
	Growth       float64 `json:"growth"`
	Inflation    float64 `json:"inflation"`
	Speed        float64 `json:"speed"`
	GameOver     bool    `json:"game_over"`
	Counters
}

// computeStats runs a full pass over the population. Empty populations yield
// zero averages.
func (s *Simulation) computeStats() Stats {
	st := Stats{
		Tick:     s.tick,
		Day:      s.day(),
		Hour:     s.clock.HourOfDay(),
		Families: s.families.Len(),
		Speed:    s.speed,
		GameOver: s.gameOver,
		Counters: s.counters,
	}
	econ := s.ledger.Snapshot()
	st.Budget = econ.Budget
	st.Growth = econ.Growth
	st.Inflation = econ.Inflation
	st.Unemployment = econ.Unemployment

	var happiness, health, age float64
	for _, c := range s.citizens {
		if !c.Alive {
			continue
		}
		st.Population++
		happiness += c.Happiness
		health += c.Health
		age += float64(c.Age)
		if c.Protesting {
			st.Protesters++
		}
		if c.Stage == agents.Child {
			st.Children++
		}
		if c.MaritalStatus == agents.Married {
			st.Married++
		}
	}
	if st.Population == 0 {
		return st
	}
	n := float64(st.Population)
	st.AvgHappiness = happiness / n
	st.AvgHealth = health / n
	st.AvgAge = age / n
	st.ProtestPct = float64(st.Protesters) / n * 100
	return st
}

func (s *Simulation) day() int {
	if s.clock.TicksPerDay <= 0 {
		return 0
	}
	return int(s.clock.Elapsed / s.clock.TicksPerDay)
}
