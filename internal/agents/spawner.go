// Citizen spawning: creates seeded adults, migrants and newborns with
// demographics, personality, skills, job and needs.
package agents

import (
	"github.com/google/uuid"

	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/scale"
	"github.com/talgya/civic-sim/internal/world"
)

// Spawner creates citizens from a shared random source.
type Spawner struct {
	rng entropy.Source
}

// NewSpawner creates a citizen spawner drawing from src.
func NewSpawner(src entropy.Source) *Spawner {
	return &Spawner{rng: src}
}

// newID draws a UUID from the seeded source so ids are reproducible.
func (s *Spawner) newID() string {
	id, err := uuid.NewRandomFromReader(entropy.Reader{Src: s.rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SpawnPopulation creates count adults placed inside the district.
func (s *Spawner) SpawnPopulation(count int, d *world.District, clock Clock) []*Citizen {
	out := make([]*Citizen, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.Adult(d, clock))
	}
	return out
}

// Adult creates a citizen aged 18–67 at a random point in the district.
func (s *Spawner) Adult(d *world.District, clock Clock) *Citizen {
	age := 18 + s.rng.Intn(50)
	x, y := s.pointIn(d.Bounds)
	c := s.base(x, y, d.ID, age, clock)
	c.Education = s.educationForAge(age)
	c.Skills = s.skills(c.Education, age)
	c.Job = AssignJob(age, c.Education, s.rng)
	c.Income = CalculateIncome(c.Job, c.Personality, age, c.Skills)
	c.MaxLifespan = lifespanAbove(age, CalculateLifespan(c.Education, c.Personality, c.Job, s.rng), s.rng)
	c.Stage = StageForAge(age)
	return c
}

// Child creates a newborn of the two parents near the first parent.
func (s *Spawner) Child(parent, other *Citizen, clock Clock) *Citizen {
	x := parent.X + entropy.Jitter(s.rng, 20)
	y := parent.Y + entropy.Jitter(s.rng, 20)
	c := s.base(x, y, parent.District, 0, clock)
	c.Education = Basic
	c.Skills = s.skills(Basic, 0)
	c.Job = Student
	c.Income = CalculateIncome(c.Job, c.Personality, 0, c.Skills)
	c.MaxLifespan = CalculateLifespan(c.Education, c.Personality, c.Job, s.rng)
	c.Stage = Child
	c.ParentIDs = []string{parent.ID, other.ID}
	c.FamilyID = parent.FamilyID
	return c
}

func (s *Spawner) base(x, y float64, district string, age int, clock Clock) *Citizen {
	gender := Male
	if s.rng.Float64() < 0.5 {
		gender = Female
	}
	return &Citizen{
		ID:            s.newID(),
		X:             x,
		Y:             y,
		District:      district,
		Age:           age,
		Gender:        gender,
		Personality:   s.personality(),
		Happiness:     60 + float64(s.rng.Intn(40)),
		Health:        70 + float64(s.rng.Intn(30)),
		Needs:         DefaultNeeds(),
		MaritalStatus: Single,
		BirthTime:     clock.BirthTimeFor(age),
		Alive:         true,
		Activity:      ActIdle,
		TargetX:       x,
		TargetY:       y,
		Speed:         1 + s.rng.Float64(),
		Desires:       s.desires(),
	}
}

func (s *Spawner) pointIn(r world.Rect) (float64, float64) {
	return r.At(s.rng.Float64(), s.rng.Float64())
}

// Education odds by age group: basic, high school, college, university.
var educationOdds = [][]float64{
	{0.2, 0.4, 0.3, 0.1},   // 18–25
	{0.3, 0.35, 0.25, 0.1}, // 26–40
	{0.4, 0.4, 0.15, 0.05}, // 41–60
	{0.6, 0.3, 0.08, 0.02}, // 60+
}

func (s *Spawner) educationForAge(age int) Education {
	group := 3
	switch {
	case age <= 25:
		group = 0
	case age <= 40:
		group = 1
	case age <= 60:
		group = 2
	}
	idx := entropy.Weighted(s.rng, educationOdds[group])
	if idx < 0 {
		return Basic
	}
	return Education(idx)
}

func (s *Spawner) personality() Personality {
	return Personality{
		Primary:           allTraits[s.rng.Intn(len(allTraits))],
		Secondary:         allTraits[s.rng.Intn(len(allTraits))],
		ProtestTendency:   s.rng.Float64() * 100,
		Adaptability:      s.rng.Float64() * 100,
		FamilyOrientation: s.rng.Float64() * 100,
		CareerFocus:       s.rng.Float64() * 100,
		Socialness:        s.rng.Float64() * 100,
	}
}

func (s *Spawner) skills(edu Education, age int) Skills {
	draw := func() float64 {
		v := s.rng.Float64() * 100
		switch edu {
		case University:
			v += 20
		case College:
			v += 10
		}
		v += float64(max(0, age-18)) * 0.5
		return scale.Clamp100(v)
	}
	return Skills{
		Communication:   draw(),
		Leadership:      draw(),
		Technical:       draw(),
		Creative:        draw(),
		Analytical:      draw(),
		Manual:          draw(),
		Social:          draw(),
		Entrepreneurial: draw(),
	}
}

// desires draws 1–3 picks from the vocabulary, dropping duplicates.
func (s *Spawner) desires() []Desire {
	n := 1 + s.rng.Intn(3)
	out := make([]Desire, 0, n)
	for i := 0; i < n; i++ {
		d := allDesires[s.rng.Intn(len(allDesires))]
		dup := false
		for _, x := range out {
			if x == d {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, d)
		}
	}
	return out
}
