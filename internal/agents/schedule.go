// Daily schedule: fixed (hour, activity, location) entries scoped by life
// stage and employment, and the movement target each location resolves to.
package agents

import (
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/world"
)

// Activity is what a citizen is doing right now.
type Activity string

const (
	ActIdle          Activity = "idle"
	ActWakeUp        Activity = "wake_up"
	ActBreakfast     Activity = "breakfast"
	ActSchool        Activity = "school"
	ActPlay          Activity = "play"
	ActWork          Activity = "work"
	ActCommuteHome   Activity = "commute_home"
	ActLeisure       Activity = "leisure"
	ActSocial        Activity = "social"
	ActJobSearch     Activity = "job_search"
	ActSkillTraining Activity = "skill_training"
	ActDinner        Activity = "dinner"
	ActFamilyTime    Activity = "family_time"
	ActEntertainment Activity = "entertainment"
	ActSleep         Activity = "sleep"
)

// Location is the semantic place an activity happens at.
type Location string

const (
	AtHome            Location = "home"
	AtWorkplace       Location = "workplace"
	AtSchool          Location = "school"
	AtPark            Location = "park"
	AtCommunityCenter Location = "community_center"
	AtJobCenter       Location = "job_center"
	AtLibrary         Location = "library"
	AtEntertainment   Location = "entertainment"
	AtShopping        Location = "shopping"
	AtRally           Location = "rally_point"
)

// Entry is one slot of the daily schedule.
type Entry struct {
	Hour     float64  `json:"hour"`
	Activity Activity `json:"activity"`
	Location Location `json:"location"`
	Duration float64  `json:"duration"` // Hours
}

var (
	morning = []Entry{
		{6, ActWakeUp, AtHome, 1},
		{7, ActBreakfast, AtHome, 1},
	}
	evening = []Entry{
		{18, ActDinner, AtHome, 1},
		{19, ActFamilyTime, AtHome, 2},
		{21, ActEntertainment, AtEntertainment, 2},
		{23, ActSleep, AtHome, 7},
	}
	childDay = []Entry{
		{8, ActSchool, AtSchool, 8},
		{16, ActPlay, AtPark, 2},
	}
	workDay = []Entry{
		{8, ActWork, AtWorkplace, 8},
		{16, ActCommuteHome, AtHome, 1},
	}
	retiredDay = []Entry{
		{9, ActLeisure, AtPark, 3},
		{14, ActSocial, AtCommunityCenter, 2},
	}
	jobSeekerDay = []Entry{
		{9, ActJobSearch, AtJobCenter, 4},
		{14, ActSkillTraining, AtLibrary, 3},
	}

	schedules = map[string][]Entry{
		"child":      compose(childDay),
		"employed":   compose(workDay),
		"retired":    compose(retiredDay),
		"unemployed": compose(jobSeekerDay),
	}
)

func compose(day []Entry) []Entry {
	out := make([]Entry, 0, len(morning)+len(day)+len(evening))
	out = append(out, morning...)
	out = append(out, day...)
	return append(out, evening...)
}

// ScheduleFor returns the daily schedule for a life stage and job.
func ScheduleFor(stage LifeStage, job Job) []Entry {
	switch {
	case stage == Child:
		return schedules["child"]
	case job.Sector == SectorRetired:
		return schedules["retired"]
	case job.Sector == SectorUnemployed:
		return schedules["unemployed"]
	default:
		return schedules["employed"]
	}
}

// EntryAt finds the entry whose window contains hour. Hours before the first
// entry wrap to the last one of the previous day.
func EntryAt(schedule []Entry, hour float64) Entry {
	current := schedule[len(schedule)-1]
	for _, e := range schedule {
		if e.Hour > hour {
			break
		}
		current = e
	}
	return current
}

var fallbackBounds = world.Rect{X: 100, Y: 100, W: 200, H: 200}

// Target resolves a location to a point, with ±25 jitter on each axis.
func Target(loc Location, job Job, d *world.District, src entropy.Source) (float64, float64) {
	bounds := fallbackBounds
	if d != nil {
		bounds = d.Bounds
	}
	var x, y float64
	switch loc {
	case AtWorkplace:
		switch job.Sector {
		case SectorIndustrial:
			x, y = bounds.At(0.8, 0.3)
		case SectorAgriculture:
			x, y = bounds.At(0.2, 0.8)
		default:
			x, y = bounds.Center()
		}
	case AtSchool:
		x, y = bounds.At(0.3, 0.2)
	case AtPark:
		x, y = bounds.At(0.5, 0.7)
	case AtEntertainment:
		x, y = 500+entropy.Jitter(src, 200), 300+entropy.Jitter(src, 100)
	case AtShopping:
		x, y = 300+entropy.Jitter(src, 100), 200+entropy.Jitter(src, 100)
	case AtCommunityCenter:
		x, y = 600+entropy.Jitter(src, 100), 400+entropy.Jitter(src, 100)
	case AtRally:
		x, y = RallyPoint(src)
		return x, y
	default:
		x, y = bounds.Center()
	}
	return x + entropy.Jitter(src, 50), y + entropy.Jitter(src, 50)
}

// RallyPoint is where protesters gather.
func RallyPoint(src entropy.Source) (float64, float64) {
	return 600 + entropy.Jitter(src, 100), 350 + entropy.Jitter(src, 100)
}
