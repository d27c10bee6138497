package agents

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Field is one labelled line of a detail view.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Detail is the read-only introspection view of a citizen.
type Detail struct {
	Citizen Citizen `json:"citizen"`
	Summary []Field `json:"summary"`
}

// Detail returns a copy of every field plus a human-readable summary.
func (c *Citizen) Detail() Detail {
	cp := *c
	cp.ChildrenIDs = append([]string(nil), c.ChildrenIDs...)
	cp.ParentIDs = append([]string(nil), c.ParentIDs...)
	cp.Desires = append([]Desire(nil), c.Desires...)

	desires := make([]string, len(c.Desires))
	for i, d := range c.Desires {
		desires[i] = humanLabel(string(d))
	}
	status := humanLabel(string(c.MaritalStatus))
	if c.Protesting {
		status += ", protesting"
	}
	spouse := "none"
	if c.SpouseID != "" {
		spouse = c.SpouseID
	}

	return Detail{
		Citizen: cp,
		Summary: []Field{
			{"ID", c.ID},
			{"District", c.District},
			{"Age", fmt.Sprintf("%d (%s), lifespan %d", c.Age, humanLabel(string(c.Stage)), c.MaxLifespan)},
			{"Gender", humanLabel(string(c.Gender))},
			{"Education", humanLabel(c.Education.String())},
			{"Personality", fmt.Sprintf("%s / %s, protest tendency %.0f", humanLabel(string(c.Personality.Primary)),
				humanLabel(string(c.Personality.Secondary)), c.Personality.ProtestTendency)},
			{"Job", fmt.Sprintf("%s (%s)", c.Job.Name, humanLabel(string(c.Job.Sector)))},
			{"Income", "$" + humanize.Comma(int64(c.Income)) + "/month"},
			{"Happiness", fmt.Sprintf("%.0f%%", c.Happiness)},
			{"Health", fmt.Sprintf("%.0f%%", c.Health)},
			{"Needs", fmt.Sprintf("food %.0f, entertainment %.0f, social %.0f, rest %.0f, safety %.0f",
				c.Needs.Food, c.Needs.Entertainment, c.Needs.Social, c.Needs.Rest, c.Needs.Safety)},
			{"Status", status},
			{"Spouse", spouse},
			{"Children", humanize.Comma(int64(len(c.ChildrenIDs)))},
			{"Activity", humanLabel(string(c.Activity))},
			{"Skills", fmt.Sprintf("average %.1f", c.Skills.Average())},
			{"Desires", strings.Join(desires, ", ")},
		},
	}
}

// humanLabel turns snake_case identifiers into words.
func humanLabel(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
