// Jobs: the static job table, the education scale and the job-assignment rule.
package agents

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/talgya/civic-sim/internal/entropy"
)

// Education is ordered: Basic < HighSchool < College < University.
type Education uint8

const (
	Basic Education = iota
	HighSchool
	College
	University
)

var educationNames = [...]string{"basic", "high_school", "college", "university"}

func (e Education) String() string {
	if int(e) < len(educationNames) {
		return educationNames[e]
	}
	return fmt.Sprintf("education(%d)", e)
}

// ParseEducation converts an education name.
func ParseEducation(s string) (Education, bool) {
	for i, name := range educationNames {
		if name == s {
			return Education(i), true
		}
	}
	return Basic, false
}

func (e Education) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

func (e *Education) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := ParseEducation(s)
	if !ok {
		return fmt.Errorf("unknown education %q", s)
	}
	*e = v
	return nil
}

// Sector classifies a job.
type Sector string

const (
	SectorAgriculture  Sector = "agriculture"
	SectorIndustrial   Sector = "industrial"
	SectorService      Sector = "service"
	SectorHealthcare   Sector = "healthcare"
	SectorEducation    Sector = "education"
	SectorTechnology   Sector = "technology"
	SectorFinance      Sector = "finance"
	SectorConstruction Sector = "construction"
	SectorPublic       Sector = "public"
	SectorLegal        Sector = "legal"
	SectorMedia        Sector = "media"
	SectorArts         Sector = "arts"
	SectorSports       Sector = "sports"

	SectorRetired    Sector = "retired"
	SectorStudent    Sector = "student"
	SectorUnemployed Sector = "unemployed"
)

// IsPublic reports whether the sector is paid from the city budget.
func (s Sector) IsPublic() bool {
	return s == SectorPublic || s == SectorEducation || s == SectorHealthcare
}

// Job describes a position in the job table.
type Job struct {
	Name      string    `json:"name"`
	Salary    float64   `json:"salary"`
	Education Education `json:"education"`
	Sector    Sector    `json:"sector"`
	MinAge    int       `json:"min_age"`
	MaxAge    int       `json:"max_age"`
}

// Pseudo-jobs that bypass the table.
var (
	Retired    = Job{Name: "Retired", Salary: 300, Sector: SectorRetired, MinAge: 65, MaxAge: 120}
	Student    = Job{Name: "Student", Salary: 0, Sector: SectorStudent, MinAge: 0, MaxAge: 17}
	Unemployed = Job{Name: "Unemployed", Salary: 0, Sector: SectorUnemployed}
)

// JobTable is the fixed catalog of real jobs.
var JobTable = []Job{
	{"Farmer", 400, Basic, SectorAgriculture, 18, 70},
	{"Rancher", 420, Basic, SectorAgriculture, 20, 65},
	{"Fisher", 450, Basic, SectorAgriculture, 18, 60},

	{"Factory Worker", 550, HighSchool, SectorIndustrial, 18, 60},
	{"Mechanic", 650, HighSchool, SectorIndustrial, 20, 65},
	{"Electrician", 720, College, SectorIndustrial, 22, 60},
	{"Welder", 580, HighSchool, SectorIndustrial, 18, 58},

	{"Sales Clerk", 480, HighSchool, SectorService, 18, 55},
	{"Driver", 520, HighSchool, SectorService, 21, 65},
	{"Barber", 450, Basic, SectorService, 18, 60},
	{"Cook", 580, HighSchool, SectorService, 20, 65},
	{"Waiter", 350, Basic, SectorService, 16, 50},
	{"Security Guard", 420, HighSchool, SectorService, 22, 60},
	{"Janitor", 380, Basic, SectorService, 18, 65},
	{"Taxi Driver", 500, HighSchool, SectorService, 21, 65},

	{"Nurse", 750, College, SectorHealthcare, 22, 60},
	{"Doctor", 1500, University, SectorHealthcare, 28, 65},
	{"Pharmacist", 980, University, SectorHealthcare, 24, 62},
	{"Medical Technician", 620, College, SectorHealthcare, 20, 60},

	{"Preschool Teacher", 480, College, SectorEducation, 22, 60},
	{"Primary Teacher", 650, College, SectorEducation, 22, 62},
	{"High School Teacher", 750, University, SectorEducation, 24, 62},
	{"Lecturer", 1200, University, SectorEducation, 28, 65},

	{"Software Developer", 1200, University, SectorTechnology, 22, 55},
	{"IT Engineer", 1400, University, SectorTechnology, 24, 60},
	{"IT Support", 800, College, SectorTechnology, 20, 55},

	{"Bank Clerk", 850, University, SectorFinance, 22, 60},
	{"Accountant", 720, College, SectorFinance, 22, 62},
	{"Financial Analyst", 950, University, SectorFinance, 24, 58},

	{"Builder", 520, Basic, SectorConstruction, 18, 60},
	{"Architect", 1100, University, SectorConstruction, 26, 62},
	{"Civil Engineer", 950, University, SectorConstruction, 24, 60},

	{"Police Officer", 680, HighSchool, SectorPublic, 20, 55},
	{"Firefighter", 650, HighSchool, SectorPublic, 20, 50},
	{"Lawyer", 1600, University, SectorLegal, 26, 65},
	{"Journalist", 750, University, SectorMedia, 22, 60},
	{"Artist", 450, College, SectorArts, 18, 70},
	{"Athlete", 900, HighSchool, SectorSports, 16, 35},
}

// unemploymentRisk is the chance of drawing no job, by education.
var unemploymentRisk = [...]float64{0.12, 0.08, 0.05, 0.03}

// Qualifies reports whether a citizen of the given age and education may hold the job.
func (j Job) Qualifies(age int, edu Education) bool {
	return edu >= j.Education && age >= j.MinAge && age <= j.MaxAge
}

// AssignJob draws a job for the given age and education.
func AssignJob(age int, edu Education, src entropy.Source) Job {
	if age >= 65 {
		return Retired
	}
	if age < 18 {
		return Student
	}
	if entropy.Bernoulli(src, unemploymentRisk[min(int(edu), len(unemploymentRisk)-1)]) {
		return Unemployed
	}
	var candidates []Job
	for _, j := range JobTable {
		if j.Qualifies(age, edu) {
			candidates = append(candidates, j)
		}
	}
	idx := entropy.Pick(src, len(candidates))
	if idx < 0 {
		return Unemployed
	}
	return candidates[idx]
}

// CalculateIncome derives monthly income from salary, traits, experience and skills.
func CalculateIncome(job Job, p Personality, age int, skills Skills) float64 {
	income := job.Salary
	switch p.Primary {
	case Hardworking:
		income *= 1.25
	case Lazy:
		income *= 0.75
	case Ambitious:
		income *= 1.15
	}
	income += float64(max(0, age-18)) * 5
	income += skills.Average() * 2
	return math.Floor(income)
}
