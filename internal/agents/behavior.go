// Per-tick citizen update: the life-cycle state machine.
// Order: death check, life stage, schedule, happiness, health, needs,
// life decisions, movement, protest.
package agents

import (
	"fmt"
	"math"

	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/scale"
	"github.com/talgya/civic-sim/internal/world"
)

// Per-update decision probabilities.
const (
	MarriageChance  = 0.001
	ChildChance     = 0.0005
	JobSearchChance = 0.01
	EducationChance = 0.0001
)

// Protest rule thresholds.
const (
	ProtestTaxThreshold       = 35
	ProtestHappinessThreshold = 25
	ProtestNeedThreshold      = 20
	ProtestTendencyThreshold  = 50
	ProtestCooldown           = 500
)

const arrivalDistance = 2.0

// DeathCause says why a citizen died.
type DeathCause string

const (
	CauseOldAge  DeathCause = "old age"
	CauseIllness DeathCause = "illness"
)

// Society is the shared population a citizen update may read and mutate.
// Implementations must tolerate being called mid-batch.
type Society interface {
	// Lookup returns a live citizen or nil.
	Lookup(id string) *Citizen
	// Partners returns marriage candidates for c. Eligibility is re-checked by the caller.
	Partners(c *Citizen) []*Citizen
	// Wed records a marriage already applied to both citizens.
	Wed(a, b *Citizen)
	// Bear creates and registers a child of the two parents, or returns nil.
	Bear(parent, other *Citizen) *Citizen
	// Die handles a citizen that has just died.
	Die(c *Citizen, cause DeathCause)
	// Emit pushes a narrative line to the event feed.
	Emit(message, category string)
}

// Context carries everything a single update reads.
type Context struct {
	Clock  Clock
	Policy policy.Snapshot
	// Speed is the global simulation speed multiplier.
	Speed float64
	// BirthRate scales the childbirth chance. Zero means normal.
	BirthRate float64
	District  *world.District
	Rand      entropy.Source
	Society   Society
}

// districtName falls back to the id when the district is not in the context.
func (ctx *Context) districtName(c *Citizen) string {
	if ctx.District != nil {
		return ctx.District.Name
	}
	return c.District
}

func (ctx *Context) birthRate() float64 {
	if ctx.BirthRate <= 0 {
		return 1
	}
	return ctx.BirthRate
}

// Update advances the citizen by one tick.
func (c *Citizen) Update(ctx *Context) {
	if !c.Alive {
		return
	}

	c.Age = ctx.Clock.AgeOf(c.BirthTime)
	if c.Age >= c.MaxLifespan {
		c.die(ctx, CauseOldAge)
		return
	}
	if c.Health <= 0 {
		c.die(ctx, CauseIllness)
		return
	}

	c.advanceStage(ctx.Rand)
	c.followSchedule(ctx)
	c.updateHappiness(ctx)
	c.updateHealth(ctx)
	if c.Health <= 0 {
		c.die(ctx, CauseIllness)
		return
	}
	c.updateNeeds(ctx)
	c.decide(ctx)
	c.move(ctx)
	c.considerProtest(ctx)
}

func (c *Citizen) die(ctx *Context, cause DeathCause) {
	c.Alive = false
	c.Protesting = false
	ctx.Society.Die(c, cause)
}

// Widow clears the spouse reference after the partner's death.
func (c *Citizen) Widow() {
	c.MaritalStatus = Widowed
	c.SpouseID = ""
	c.Happiness = scale.Clamp100(c.Happiness - 30)
}

func (c *Citizen) followSchedule(ctx *Context) {
	e := EntryAt(ScheduleFor(c.Stage, c.Job), ctx.Clock.HourOfDay())
	if e.Activity == c.Activity {
		return
	}
	c.Activity = e.Activity
	if !c.Protesting {
		c.TargetX, c.TargetY = Target(e.Location, c.Job, ctx.District, ctx.Rand)
	}
}

func (c *Citizen) updateHappiness(ctx *Context) {
	delta := 0.0
	if tax := ctx.Policy.TaxRate; tax > 25 {
		delta -= (tax - 25) * 0.8
	}
	delta += ctx.Policy.ServiceBudget() * 0.15
	delta += (c.Needs.Average() - 50) * 0.2

	switch c.Activity {
	case ActEntertainment:
		delta += 5
	case ActFamilyTime:
		delta += 3
	case ActWork:
		if c.Job.Salary > 0 {
			delta += 2
		}
	}

	switch c.Stage {
	case YoungAdult:
		delta += 2
	case Elderly:
		if c.Health < 50 {
			delta -= 5
		}
	}

	c.Happiness = scale.Clamp100(c.Happiness + delta*0.1)
}

func (c *Citizen) updateHealth(ctx *Context) {
	delta := 0.0
	if c.Age > 50 {
		delta -= float64(c.Age-50) * 0.02
	}
	switch c.Job.Sector {
	case SectorIndustrial:
		delta -= 0.1
	case SectorHealthcare:
		delta += 0.05
	}
	if c.Happiness > 70 {
		delta += 0.1
	} else if c.Happiness < 30 {
		delta -= 0.2
	}
	if c.Needs.Rest < 30 {
		delta -= 0.15
	}
	if c.Needs.Food < 20 {
		delta -= 0.25
	}
	if ctx.District != nil {
		delta -= ctx.District.PollutionHealthPenalty()
	}
	c.Health = scale.Clamp100(c.Health + delta)
}

func (c *Citizen) updateNeeds(ctx *Context) {
	crime := 1.0
	if ctx.District != nil {
		crime = ctx.District.CrimeMultiplier()
	}
	c.Needs.decay(ctx.Speed, crime)
	c.Needs.restore(c.Activity, ctx.Policy.SecurityBudget)
	c.Needs.clamp()
}

func (c *Citizen) decide(ctx *Context) {
	src := ctx.Rand
	if c.marriageAge() && c.MaritalStatus == Single && c.Wants(WantsMarriage) &&
		entropy.Bernoulli(src, MarriageChance) {
		c.seekPartner(ctx)
	}
	if c.MaritalStatus == Married && c.Age >= 20 && c.Age <= 45 && len(c.ChildrenIDs) < 3 &&
		c.Wants(WantsChildren) && entropy.Bernoulli(src, ChildChance*ctx.birthRate()) {
		c.haveChild(ctx)
	}
	if c.IsUnemployed() && entropy.Bernoulli(src, JobSearchChance) {
		c.seekJob(ctx)
	}
	if c.Age < 30 && c.Education < University && c.Wants(WantsHigherEducation) &&
		entropy.Bernoulli(src, EducationChance) {
		if c.PursueEducation(src) {
			ctx.Society.Emit(fmt.Sprintf("A citizen completed %s education", c.Education), "education")
		}
	}
}

func (c *Citizen) marriageAge() bool { return c.Age >= 22 && c.Age <= 40 }

// CanMarry reports whether b is an eligible partner for a.
func CanMarry(a, b *Citizen) bool {
	if a == b || !b.Alive || b.MaritalStatus != Single || b.Gender == a.Gender {
		return false
	}
	if b.District != a.District || !b.marriageAge() || !b.Wants(WantsMarriage) {
		return false
	}
	diff := a.Age - b.Age
	if diff < 0 {
		diff = -diff
	}
	return diff <= 10
}

// Marry links two citizens as reciprocal spouses.
func Marry(a, b *Citizen) {
	a.MaritalStatus, b.MaritalStatus = Married, Married
	a.SpouseID, b.SpouseID = b.ID, a.ID
	a.Happiness = scale.Clamp100(a.Happiness + 15)
	b.Happiness = scale.Clamp100(b.Happiness + 15)
}

func (c *Citizen) seekPartner(ctx *Context) {
	var eligible []*Citizen
	for _, p := range ctx.Society.Partners(c) {
		if CanMarry(c, p) {
			eligible = append(eligible, p)
		}
	}
	idx := entropy.Pick(ctx.Rand, len(eligible))
	if idx < 0 {
		return
	}
	partner := eligible[idx]
	Marry(c, partner)
	ctx.Society.Wed(c, partner)
}

func (c *Citizen) haveChild(ctx *Context) {
	spouse := ctx.Society.Lookup(c.SpouseID)
	if spouse == nil || !spouse.Alive {
		return
	}
	child := ctx.Society.Bear(c, spouse)
	if child == nil {
		return
	}
	c.ChildrenIDs = append(c.ChildrenIDs, child.ID)
	spouse.ChildrenIDs = append(spouse.ChildrenIDs, child.ID)
	c.Happiness = scale.Clamp100(c.Happiness + 10)
	spouse.Happiness = scale.Clamp100(spouse.Happiness + 10)
}

func (c *Citizen) seekJob(ctx *Context) {
	job := AssignJob(c.Age, c.Education, ctx.Rand)
	if job.Sector == SectorUnemployed || job.Sector == SectorRetired {
		return
	}
	c.Job = job
	c.Income = CalculateIncome(job, c.Personality, c.Age, c.Skills)
	c.Happiness = scale.Clamp100(c.Happiness + 20)
	ctx.Society.Emit(fmt.Sprintf("A %d-year-old found work as %s", c.Age, job.Name), "employment")
}

// PursueEducation advances one education level and redraws the job.
// Returns false at the top of the scale.
func (c *Citizen) PursueEducation(src entropy.Source) bool {
	if c.Education >= University {
		return false
	}
	c.Education++
	c.Job = AssignJob(c.Age, c.Education, src)
	c.Income = CalculateIncome(c.Job, c.Personality, c.Age, c.Skills)
	c.Happiness = scale.Clamp100(c.Happiness + 10)
	return true
}

// Employ puts the citizen in a specific job.
func (c *Citizen) Employ(job Job) {
	c.Job = job
	c.Income = CalculateIncome(job, c.Personality, c.Age, c.Skills)
}

func (c *Citizen) move(ctx *Context) {
	dx, dy := c.TargetX-c.X, c.TargetY-c.Y
	dist := math.Hypot(dx, dy)
	if dist <= arrivalDistance {
		return
	}
	speed := ctx.Speed
	if speed <= 0 {
		speed = 1
	}
	step := c.Speed * speed
	if ctx.District != nil {
		step /= ctx.District.TrafficMultiplier()
	}
	if step >= dist {
		c.X, c.Y = c.TargetX, c.TargetY
		return
	}
	c.X += dx / dist * step
	c.Y += dy / dist * step
}

// ProtestChance sums the protest contributions, capped at 1.
func ProtestChance(c *Citizen, pol policy.Snapshot) float64 {
	p := 0.0
	if pol.TaxRate > ProtestTaxThreshold {
		p += 0.3
	}
	if c.Happiness < ProtestHappinessThreshold {
		p += 0.4
	}
	if c.IsUnemployed() {
		p += 0.2
	}
	if c.Needs.AnyBelow(ProtestNeedThreshold) {
		p += 0.2
	}
	if c.Personality.ProtestTendency > ProtestTendencyThreshold {
		p += 0.3
	}
	return math.Min(p, 1)
}

func (c *Citizen) considerProtest(ctx *Context) {
	if c.ProtestCooldown == 0 {
		p := ProtestChance(c, ctx.Policy)
		if p > 0.5 && entropy.Bernoulli(ctx.Rand, p*0.01) {
			c.Protesting = true
			c.ProtestCooldown = ProtestCooldown
			c.TargetX, c.TargetY = RallyPoint(ctx.Rand)
			ctx.Society.Emit(fmt.Sprintf("A %d-year-old %s joined a protest in %s", c.Age, c.Job.Name, ctx.districtName(c)), "protest")
		}
	}
	if c.ProtestCooldown > 0 {
		c.ProtestCooldown--
		if c.ProtestCooldown == 0 {
			c.Protesting = false
		}
	}
}
