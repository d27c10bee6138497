// Needs: five independent gauges that decay every update and are restored
// by the matching scheduled activity.
package agents

import "github.com/talgya/civic-sim/internal/scale"

// Needs tracks the fulfillment of each gauge in [0, 100].
type Needs struct {
	Food          float64 `json:"food"`
	Entertainment float64 `json:"entertainment"`
	Social        float64 `json:"social"`
	Rest          float64 `json:"rest"`
	Safety        float64 `json:"safety"`
}

// DefaultNeeds is the starting state of every new citizen.
func DefaultNeeds() Needs {
	return Needs{Food: 100, Entertainment: 70, Social: 80, Rest: 100, Safety: 90}
}

// Average is the mean of the five gauges.
func (n Needs) Average() float64 {
	return (n.Food + n.Entertainment + n.Social + n.Rest + n.Safety) / 5
}

// AnyBelow reports whether some gauge is under the threshold.
func (n Needs) AnyBelow(threshold float64) bool {
	return n.Food < threshold || n.Entertainment < threshold || n.Social < threshold ||
		n.Rest < threshold || n.Safety < threshold
}

func (n *Needs) clamp() {
	n.Food = scale.Clamp100(n.Food)
	n.Entertainment = scale.Clamp100(n.Entertainment)
	n.Social = scale.Clamp100(n.Social)
	n.Rest = scale.Clamp100(n.Rest)
	n.Safety = scale.Clamp100(n.Safety)
}

// Per-update decay at speed 1.
const (
	foodDecay          = 0.5
	restDecay          = 0.3
	entertainmentDecay = 0.2
	socialDecay        = 0.15
	safetyDecay        = 0.1
)

// decay drains every gauge. crime scales the safety drain.
func (n *Needs) decay(speed, crime float64) {
	n.Food -= foodDecay * speed
	n.Rest -= restDecay * speed
	n.Entertainment -= entertainmentDecay * speed
	n.Social -= socialDecay * speed
	n.Safety -= safetyDecay * speed * crime
}

// restore tops up the gauge matching the current activity.
func (n *Needs) restore(act Activity, securityBudget float64) {
	switch act {
	case ActBreakfast, ActDinner:
		n.Food += 30
	case ActSleep:
		n.Rest += 40
		n.Safety += securityBudget * 0.1
	case ActEntertainment:
		n.Entertainment += 25
	case ActSocial:
		n.Social += 20
	case ActFamilyTime:
		n.Social += 20
		n.Safety += securityBudget * 0.1
	}
}

// Boost tops up food and entertainment and clamps. Used by city events.
func (n *Needs) Boost(food, entertainment float64) {
	n.Food += food
	n.Entertainment += entertainment
	n.clamp()
}
