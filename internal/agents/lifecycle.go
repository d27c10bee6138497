// Life cycle: the simulation clock, lifespan draws and the transitions
// between life stages.
package agents

import (
	"math"

	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/scale"
)

// Clock converts elapsed simulation units into time of day and age.
type Clock struct {
	Elapsed      float64 `json:"elapsed"`
	TicksPerDay  float64 `json:"ticks_per_day"`
	TicksPerYear float64 `json:"ticks_per_year"`
}

// HourOfDay returns the current time of day in [0, 24).
func (c Clock) HourOfDay() float64 {
	if c.TicksPerDay <= 0 {
		return 0
	}
	return math.Mod(c.Elapsed, c.TicksPerDay) / c.TicksPerDay * 24
}

// AgeOf returns whole sim-years elapsed since birth.
func (c Clock) AgeOf(birth float64) int {
	if c.TicksPerYear <= 0 || c.Elapsed <= birth {
		return 0
	}
	return int((c.Elapsed - birth) / c.TicksPerYear)
}

// BirthTimeFor returns the birth time of someone who turned age just now.
// Half a unit earlier keeps AgeOf stable under float rounding.
func (c Clock) BirthTimeFor(age int) float64 {
	return c.Elapsed - float64(age)*c.TicksPerYear - 0.5
}

// Lifespan bounds in sim-years.
const (
	MinLifespan = 40
	MaxLifespan = 90
)

// CalculateLifespan draws a maximum lifespan modulated by education,
// primary trait and job sector.
func CalculateLifespan(edu Education, p Personality, job Job, src entropy.Source) int {
	base := 65.0
	switch edu {
	case University:
		base += 8
	case College:
		base += 5
	case HighSchool:
		base += 2
	}
	switch p.Primary {
	case Optimistic:
		base += 5
	case Hardworking:
		base += 3
	case Pessimistic:
		base -= 3
	case Lazy:
		base -= 2
	}
	switch job.Sector {
	case SectorHealthcare:
		base += 4
	case SectorIndustrial:
		base -= 2
	}
	base += entropy.Jitter(src, 20)
	return scale.Clamp(int(base), MinLifespan, MaxLifespan)
}

// lifespanAbove redraws a lifespan so that someone already age years old is
// not born dead.
func lifespanAbove(age, lifespan int, src entropy.Source) int {
	if lifespan > age {
		return lifespan
	}
	return scale.Clamp(age+1+src.Intn(10), MinLifespan, MaxLifespan)
}

// advanceStage recomputes the life stage and moves the citizen between the
// student, working and retired pseudo-jobs when a threshold is crossed.
func (c *Citizen) advanceStage(src entropy.Source) {
	c.Stage = StageForAge(c.Age)
	switch {
	case c.Age >= 65 && c.Job.Sector != SectorRetired:
		c.Job = Retired
		c.Income = CalculateIncome(c.Job, c.Personality, c.Age, c.Skills)
	case c.Age >= 18 && c.Job.Sector == SectorStudent:
		c.Job = AssignJob(c.Age, c.Education, src)
		c.Income = CalculateIncome(c.Job, c.Personality, c.Age, c.Skills)
	}
}
