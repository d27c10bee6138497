// Package agents provides the citizen data model, job assignment, daily
// schedule and the per-tick life-cycle update.
package agents

// Gender is a citizen's gender for partner matching.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// MaritalStatus tracks a citizen's relationship state.
type MaritalStatus string

const (
	Single   MaritalStatus = "single"
	Married  MaritalStatus = "married"
	Divorced MaritalStatus = "divorced"
	Widowed  MaritalStatus = "widowed"
)

// LifeStage is derived from age and never set independently.
type LifeStage string

const (
	Child      LifeStage = "child"
	YoungAdult LifeStage = "young_adult"
	Adult      LifeStage = "adult"
	MiddleAge  LifeStage = "middle_age"
	Elderly    LifeStage = "elderly"
)

// StageForAge maps an age in years to its life stage.
func StageForAge(age int) LifeStage {
	switch {
	case age < 18:
		return Child
	case age < 25:
		return YoungAdult
	case age < 45:
		return Adult
	case age < 65:
		return MiddleAge
	default:
		return Elderly
	}
}

// Trait is a personality trait.
type Trait string

const (
	Patient     Trait = "patient"
	Impatient   Trait = "impatient"
	Optimistic  Trait = "optimistic"
	Pessimistic Trait = "pessimistic"
	Hardworking Trait = "hardworking"
	Lazy        Trait = "lazy"
	Sociable    Trait = "social"
	Introverted Trait = "introverted"
	Ambitious   Trait = "ambitious"
	Content     Trait = "content"
	Creative    Trait = "creative"
	Practical   Trait = "practical"
	Adventurous Trait = "adventurous"
	Cautious    Trait = "cautious"
	Generous    Trait = "generous"
	Frugal      Trait = "frugal"
)

var allTraits = []Trait{
	Patient, Impatient, Optimistic, Pessimistic, Hardworking, Lazy, Sociable, Introverted,
	Ambitious, Content, Creative, Practical, Adventurous, Cautious, Generous, Frugal,
}

// Personality holds a citizen's traits and continuous scores in [0, 100].
type Personality struct {
	Primary           Trait   `json:"primary"`
	Secondary         Trait   `json:"secondary"`
	ProtestTendency   float64 `json:"protest_tendency"`
	Adaptability      float64 `json:"adaptability"`
	FamilyOrientation float64 `json:"family_orientation"`
	CareerFocus       float64 `json:"career_focus"`
	Socialness        float64 `json:"socialness"`
}

// Desire is a life goal fixed at creation.
type Desire string

const (
	WantsMarriage          Desire = "marriage"
	WantsChildren          Desire = "children"
	WantsCareerAdvancement Desire = "career_advancement"
	WantsHigherEducation   Desire = "higher_education"
	WantsTravel            Desire = "travel"
	WantsOwnBusiness       Desire = "own_business"
	WantsArtisticPursuits  Desire = "artistic_pursuits"
	WantsCommunityService  Desire = "community_service"
)

var allDesires = []Desire{
	WantsMarriage, WantsChildren, WantsCareerAdvancement, WantsHigherEducation,
	WantsTravel, WantsOwnBusiness, WantsArtisticPursuits, WantsCommunityService,
}

// Skills are eight scores in [0, 100].
type Skills struct {
	Communication   float64 `json:"communication"`
	Leadership      float64 `json:"leadership"`
	Technical       float64 `json:"technical"`
	Creative        float64 `json:"creative"`
	Analytical      float64 `json:"analytical"`
	Manual          float64 `json:"manual"`
	Social          float64 `json:"social"`
	Entrepreneurial float64 `json:"entrepreneurial"`
}

// Average is the mean of all eight skills.
func (s Skills) Average() float64 {
	return (s.Communication + s.Leadership + s.Technical + s.Creative +
		s.Analytical + s.Manual + s.Social + s.Entrepreneurial) / 8
}

// Citizen is one simulated person.
type Citizen struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	District string  `json:"district"`

	// Demographics
	Age         int         `json:"age"`
	Gender      Gender      `json:"gender"`
	Education   Education   `json:"education"`
	Personality Personality `json:"personality"`
	Skills      Skills      `json:"skills"`

	// Economic
	Job    Job     `json:"job"`
	Income float64 `json:"income"`

	// Vital
	Happiness float64 `json:"happiness"`
	Health    float64 `json:"health"`
	Needs     Needs   `json:"needs"`

	// Relationships
	MaritalStatus MaritalStatus `json:"marital_status"`
	SpouseID      string        `json:"spouse_id,omitempty"`
	ChildrenIDs   []string      `json:"children_ids,omitempty"`
	FamilyID      string        `json:"family_id,omitempty"`
	ParentIDs     []string      `json:"parent_ids,omitempty"`

	// Life cycle
	BirthTime   float64   `json:"birth_time"`   // Sim-clock units
	MaxLifespan int       `json:"max_lifespan"` // Sim-years
	Stage       LifeStage `json:"life_stage"`
	Alive       bool      `json:"alive"`

	// Behavior
	Activity        Activity `json:"activity"`
	TargetX         float64  `json:"target_x"`
	TargetY         float64  `json:"target_y"`
	Speed           float64  `json:"speed"`
	Protesting      bool     `json:"protesting"`
	ProtestCooldown int      `json:"protest_cooldown"`
	Desires         []Desire `json:"desires"`
}

// Wants reports whether the citizen holds a desire.
func (c *Citizen) Wants(d Desire) bool {
	for _, x := range c.Desires {
		if x == d {
			return true
		}
	}
	return false
}

// IsUnemployed reports whether the citizen holds the unemployed pseudo-job.
func (c *Citizen) IsUnemployed() bool { return c.Job.Sector == SectorUnemployed }

// IsWorkingAge reports whether the citizen is 18–64.
func (c *Citizen) IsWorkingAge() bool { return c.Age >= 18 && c.Age < 65 }

// PaysTax reports whether the citizen's income is taxable.
func (c *Citizen) PaysTax() bool {
	return c.Job.Sector != SectorUnemployed && c.Job.Sector != SectorStudent
}
