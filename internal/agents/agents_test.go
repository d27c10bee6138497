package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/world"
)

// fixedSource returns the same draw every time.
type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Float64() float64 { return s.f }

func (s fixedSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	if s.n >= n {
		return n - 1
	}
	return s.n
}

// fakeSociety is an in-memory population.
type fakeSociety struct {
	pop      map[string]*Citizen
	order    []*Citizen
	spawner  *Spawner
	clock    *Clock
	weds     int
	died     []*Citizen
	events   []string
	messages []string
}

func newFakeSociety(src entropy.Source, clock *Clock) *fakeSociety {
	return &fakeSociety{pop: make(map[string]*Citizen), spawner: NewSpawner(src), clock: clock}
}

func (s *fakeSociety) add(cs ...*Citizen) {
	for _, c := range cs {
		s.pop[c.ID] = c
		s.order = append(s.order, c)
	}
}

func (s *fakeSociety) Lookup(id string) *Citizen {
	c := s.pop[id]
	if c == nil || !c.Alive {
		return nil
	}
	return c
}

func (s *fakeSociety) Partners(c *Citizen) []*Citizen {
	var out []*Citizen
	for _, p := range s.order {
		if p != c && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (s *fakeSociety) Wed(a, b *Citizen) { s.weds++ }

func (s *fakeSociety) Bear(parent, other *Citizen) *Citizen {
	child := s.spawner.Child(parent, other, *s.clock)
	s.add(child)
	return child
}

func (s *fakeSociety) Die(c *Citizen, cause DeathCause) {
	s.died = append(s.died, c)
	if spouse := s.Lookup(c.SpouseID); spouse != nil {
		spouse.Widow()
	}
}

func (s *fakeSociety) Emit(message, category string) {
	s.events = append(s.events, category)
	s.messages = append(s.messages, message)
}

func testClock() Clock {
	return Clock{Elapsed: 10 * 960, TicksPerDay: 96, TicksPerYear: 960}
}

func newTestCitizen(id string, g Gender, age int, clock Clock) *Citizen {
	return &Citizen{
		ID:            id,
		Gender:        g,
		Age:           age,
		District:      "district1",
		Alive:         true,
		MaritalStatus: Single,
		Desires:       []Desire{WantsMarriage},
		Happiness:     50,
		Health:        80,
		Needs:         DefaultNeeds(),
		Job:           JobTable[0],
		MaxLifespan:   90,
		Speed:         1,
		BirthTime:     clock.BirthTimeFor(age),
		Stage:         StageForAge(age),
	}
}

func TestStageForAge(t *testing.T) {
	tests := []struct {
		age  int
		want LifeStage
	}{
		{0, Child}, {17, Child}, {18, YoungAdult}, {24, YoungAdult},
		{25, Adult}, {44, Adult}, {45, MiddleAge}, {64, MiddleAge}, {65, Elderly}, {90, Elderly},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, StageForAge(tc.age), "age %d", tc.age)
	}
}

func TestAssignJob_Overrides(t *testing.T) {
	src := entropy.New(1)
	assert.Equal(t, Retired, AssignJob(65, University, src))
	assert.Equal(t, Student, AssignJob(10, Basic, src))
	assert.Equal(t, Unemployed, AssignJob(30, University, fixedSource{f: 0}))
}

func TestAssignJob_SameSeedSameJob(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		a := AssignJob(34, College, entropy.New(seed))
		b := AssignJob(34, College, entropy.New(seed))
		assert.Equal(t, a, b)
	}
}

func TestAssignJob_Qualifies(t *testing.T) {
	src := entropy.New(3)
	for i := 0; i < 500; i++ {
		age := 18 + src.Intn(47)
		edu := Education(src.Intn(4))
		job := AssignJob(age, edu, src)
		if job.Sector == SectorUnemployed {
			continue
		}
		assert.True(t, job.Qualifies(age, edu), "%s at %d/%s", job.Name, age, edu)
	}
}

func TestCalculateIncome(t *testing.T) {
	job := Job{Name: "Test", Salary: 1000}
	tests := []struct {
		name   string
		trait  Trait
		age    int
		skills Skills
		want   float64
	}{
		{"plain", Patient, 18, Skills{}, 1000},
		{"hardworking", Hardworking, 18, Skills{}, 1250},
		{"lazy", Lazy, 18, Skills{}, 750},
		{"ambitious", Ambitious, 18, Skills{}, 1150},
		{"experience", Patient, 28, Skills{}, 1050},
		{"skills", Patient, 18, Skills{50, 50, 50, 50, 50, 50, 50, 50}, 1100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateIncome(job, Personality{Primary: tc.trait}, tc.age, tc.skills)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCalculateLifespan_Bounded(t *testing.T) {
	src := entropy.New(11)
	for i := 0; i < 1000; i++ {
		l := CalculateLifespan(Education(src.Intn(4)), Personality{Primary: allTraits[src.Intn(len(allTraits))]}, JobTable[src.Intn(len(JobTable))], src)
		assert.GreaterOrEqual(t, l, MinLifespan)
		assert.LessOrEqual(t, l, MaxLifespan)
	}
}

func TestEntryAt(t *testing.T) {
	employed := ScheduleFor(Adult, JobTable[0])
	assert.Equal(t, ActSleep, EntryAt(employed, 3).Activity)
	assert.Equal(t, ActWakeUp, EntryAt(employed, 6).Activity)
	assert.Equal(t, ActWork, EntryAt(employed, 8.5).Activity)
	assert.Equal(t, ActSleep, EntryAt(employed, 23.9).Activity)

	assert.Equal(t, ActSchool, EntryAt(ScheduleFor(Child, Student), 10).Activity)
	assert.Equal(t, ActLeisure, EntryAt(ScheduleFor(Elderly, Retired), 10).Activity)
	assert.Equal(t, ActJobSearch, EntryAt(ScheduleFor(Adult, Unemployed), 10).Activity)
}

func TestSpawner_AdultsValid(t *testing.T) {
	d := world.DefaultDistricts()[0]
	clock := testClock()
	cs := NewSpawner(entropy.New(5)).SpawnPopulation(200, d, clock)
	ids := make(map[string]bool)
	for _, c := range cs {
		assert.False(t, ids[c.ID], "duplicate id")
		ids[c.ID] = true
		assert.GreaterOrEqual(t, c.Age, 18)
		assert.LessOrEqual(t, c.Age, 67)
		assert.Equal(t, c.Age, clock.AgeOf(c.BirthTime))
		assert.Greater(t, c.MaxLifespan, c.Age)
		assert.True(t, d.Bounds.Contains(c.X, c.Y))
		assert.NotEmpty(t, c.Desires)
		assert.LessOrEqual(t, len(c.Desires), 3)
	}
}

func TestSpawner_SameSeedSameIDs(t *testing.T) {
	d := world.DefaultDistricts()[1]
	a := NewSpawner(entropy.New(9)).Adult(d, testClock())
	b := NewSpawner(entropy.New(9)).Adult(d, testClock())
	assert.Equal(t, a.ID, b.ID)
}

func TestUpdate_InvariantsHold(t *testing.T) {
	src := entropy.New(21)
	clock := testClock()
	soc := newFakeSociety(src, &clock)
	districts := world.NewRegistry(world.DefaultDistricts())
	for _, d := range districts.All() {
		soc.add(soc.spawner.SpawnPopulation(25, d, clock)...)
	}

	policies := []policy.Snapshot{
		{TaxRate: 60},
		{TaxRate: 0, EducationBudget: 50, HealthBudget: 50, SecurityBudget: 40},
	}
	for _, pol := range policies {
		for tick := 0; tick < 1500; tick++ {
			clock.Elapsed++
			for _, c := range append([]*Citizen(nil), soc.order...) {
				c.Update(&Context{
					Clock: clock, Policy: pol, Speed: 1, Rand: src, Society: soc,
					District: districts.Lookup(c.District),
				})
				if !c.Alive {
					continue
				}
				require.True(t, c.Happiness >= 0 && c.Happiness <= 100)
				require.True(t, c.Health >= 0 && c.Health <= 100)
				for _, v := range []float64{c.Needs.Food, c.Needs.Entertainment, c.Needs.Social, c.Needs.Rest, c.Needs.Safety} {
					require.True(t, v >= 0 && v <= 100)
				}
				require.Equal(t, StageForAge(c.Age), c.Stage)
				if c.MaritalStatus == Married {
					if spouse := soc.Lookup(c.SpouseID); spouse != nil {
						require.Equal(t, c.ID, spouse.SpouseID)
					}
				}
			}
		}
	}
}

func TestUpdate_DeathWidowsSpouse(t *testing.T) {
	clock := testClock()
	soc := newFakeSociety(entropy.New(1), &clock)
	a := newTestCitizen("a", Male, 70, clock)
	a.MaxLifespan = 70
	b := newTestCitizen("b", Female, 60, clock)
	Marry(a, b)
	soc.add(a, b)

	a.Update(&Context{Clock: clock, Speed: 1, Rand: entropy.New(1), Society: soc})

	assert.False(t, a.Alive)
	require.Len(t, soc.died, 1)
	assert.Equal(t, Widowed, b.MaritalStatus)
	assert.Empty(t, b.SpouseID)
}

func TestUpdate_HealthDeath(t *testing.T) {
	clock := testClock()
	soc := newFakeSociety(entropy.New(1), &clock)
	a := newTestCitizen("a", Male, 30, clock)
	a.Health = 0
	soc.add(a)
	a.Update(&Context{Clock: clock, Speed: 1, Rand: entropy.New(1), Society: soc})
	assert.False(t, a.Alive)
}

func TestUpdate_MarriageWithForcedDraws(t *testing.T) {
	clock := testClock()
	soc := newFakeSociety(fixedSource{}, &clock)
	a := newTestCitizen("a", Male, 30, clock)
	b := newTestCitizen("b", Female, 28, clock)
	soc.add(a, b)

	a.Update(&Context{Clock: clock, Policy: policy.NewStore().Snapshot(), Speed: 1, Rand: fixedSource{}, Society: soc})

	assert.Equal(t, Married, a.MaritalStatus)
	assert.Equal(t, Married, b.MaritalStatus)
	assert.Equal(t, "b", a.SpouseID)
	assert.Equal(t, "a", b.SpouseID)
	assert.Equal(t, 1, soc.weds)
}

func TestCanMarry(t *testing.T) {
	clock := testClock()
	a := newTestCitizen("a", Male, 30, clock)
	tests := []struct {
		name   string
		mutate func(b *Citizen)
		want   bool
	}{
		{"eligible", func(b *Citizen) {}, true},
		{"same gender", func(b *Citizen) { b.Gender = Male }, false},
		{"other district", func(b *Citizen) { b.District = "district2" }, false},
		{"too far apart", func(b *Citizen) { b.Age = 19 }, false},
		{"married", func(b *Citizen) { b.MaritalStatus = Married }, false},
		{"no desire", func(b *Citizen) { b.Desires = []Desire{WantsTravel} }, false},
		{"dead", func(b *Citizen) { b.Alive = false }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestCitizen("b", Female, 28, clock)
			tc.mutate(b)
			assert.Equal(t, tc.want, CanMarry(a, b))
		})
	}
}

func TestProtestChance(t *testing.T) {
	clock := testClock()
	tests := []struct {
		name   string
		mutate func(c *Citizen)
		tax    float64
		want   float64
	}{
		{"calm", func(c *Citizen) {}, 15, 0},
		{"tax", func(c *Citizen) {}, 40, 0.3},
		{"unhappy and taxed", func(c *Citizen) { c.Happiness = 10 }, 40, 0.7},
		{"unemployed", func(c *Citizen) { c.Job = Unemployed }, 15, 0.2},
		{"hungry", func(c *Citizen) { c.Needs.Food = 5 }, 15, 0.2},
		{"capped", func(c *Citizen) {
			c.Happiness = 10
			c.Job = Unemployed
			c.Needs.Food = 5
			c.Personality.ProtestTendency = 90
		}, 40, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCitizen("c", Male, 30, clock)
			tc.mutate(c)
			assert.InDelta(t, tc.want, ProtestChance(c, policy.Snapshot{TaxRate: tc.tax}), 1e-9)
		})
	}
}

func TestProtest_TriggerAndCooldown(t *testing.T) {
	clock := testClock()
	soc := newFakeSociety(fixedSource{}, &clock)
	c := newTestCitizen("c", Male, 30, clock)
	c.Happiness = 10
	c.District = "district2"
	d := world.DefaultDistricts()[1]
	ctx := &Context{Clock: clock, Policy: policy.Snapshot{TaxRate: 60}, Rand: fixedSource{}, Society: soc, District: d}

	c.considerProtest(ctx)
	require.True(t, c.Protesting)
	require.NotEmpty(t, soc.messages)
	assert.Contains(t, soc.messages[len(soc.messages)-1], "Industrial District")
	assert.NotContains(t, soc.messages[len(soc.messages)-1], "district2")
	assert.Equal(t, ProtestCooldown-1, c.ProtestCooldown)
	assert.Equal(t, 550.0, c.TargetX)
	assert.Equal(t, 300.0, c.TargetY)
	assert.Contains(t, soc.events, "protest")

	c.Happiness = 90
	for i := 0; i < ProtestCooldown-1; i++ {
		c.considerProtest(ctx)
	}
	assert.False(t, c.Protesting)
	assert.Zero(t, c.ProtestCooldown)
}

func TestProtest_BelowHalfNeverTriggers(t *testing.T) {
	clock := testClock()
	soc := newFakeSociety(fixedSource{}, &clock)
	c := newTestCitizen("c", Male, 30, clock)
	ctx := &Context{Clock: clock, Policy: policy.Snapshot{TaxRate: 60}, Rand: fixedSource{}, Society: soc}
	for i := 0; i < 100; i++ {
		c.considerProtest(ctx)
	}
	assert.False(t, c.Protesting)
}

func TestMove_SnapsWithoutOvershoot(t *testing.T) {
	c := &Citizen{X: 0, Y: 0, TargetX: 3, TargetY: 4, Speed: 2}
	ctx := &Context{Speed: 1}
	c.move(ctx)
	assert.InDelta(t, 1.2, c.X, 1e-9)
	assert.InDelta(t, 1.6, c.Y, 1e-9)
	c.move(ctx)
	assert.InDelta(t, 2.4, c.X, 1e-9)

	// Within arrival distance: stays put.
	c.move(ctx)
	assert.InDelta(t, 2.4, c.X, 1e-9)

	near := &Citizen{X: 0, Y: 0, TargetX: 2.5, TargetY: 0, Speed: 3}
	near.move(ctx)
	assert.Equal(t, 2.5, near.X)
}

func TestCitizen_JSONRoundTripSameNextTick(t *testing.T) {
	clock := testClock()
	d := world.DefaultDistricts()[2]
	orig := NewSpawner(entropy.New(33)).Adult(d, clock)

	b, err := json.Marshal(orig)
	require.NoError(t, err)
	var copied Citizen
	require.NoError(t, json.Unmarshal(b, &copied))
	require.Equal(t, *orig, copied)

	clock.Elapsed += 40
	pol := policy.NewStore().Snapshot()
	for _, c := range []*Citizen{orig, &copied} {
		soc := newFakeSociety(entropy.New(77), &clock)
		soc.add(c)
		c.Update(&Context{Clock: clock, Policy: pol, Speed: 1, Rand: entropy.New(77), Society: soc, District: d})
	}
	assert.Equal(t, *orig, copied)
}

func TestDetail(t *testing.T) {
	clock := testClock()
	c := newTestCitizen("c", Female, 40, clock)
	c.Income = 12345
	det := c.Detail()
	assert.Equal(t, *c, det.Citizen)

	labels := make(map[string]string)
	for _, f := range det.Summary {
		labels[f.Label] = f.Value
	}
	assert.Equal(t, "$12,345/month", labels["Income"])
	assert.Equal(t, "Female", labels["Gender"])
	assert.Contains(t, labels["Desires"], "Marriage")
}
