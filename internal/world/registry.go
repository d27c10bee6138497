package world

import (
	"fmt"

	"github.com/talgya/civic-sim/internal/scale"
)

// Registry holds the districts in a stable order.
type Registry struct {
	districts []*District
	byID      map[string]*District
}

// NewRegistry builds a registry over the given districts.
func NewRegistry(districts []*District) *Registry {
	r := &Registry{byID: make(map[string]*District, len(districts))}
	for _, d := range districts {
		r.districts = append(r.districts, d)
		r.byID[d.ID] = d
	}
	return r
}

// Get returns the district with the given id.
func (r *Registry) Get(id string) (*District, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDistrict, id)
	}
	return d, nil
}

// Lookup returns the district or nil.
func (r *Registry) Lookup(id string) *District {
	return r.byID[id]
}

// All returns the districts in registration order.
func (r *Registry) All() []*District {
	return r.districts
}

// Len is the number of districts.
func (r *Registry) Len() int { return len(r.districts) }

// Recount overwrites every district's population from a fresh count.
// Districts missing from counts are set to zero.
func (r *Registry) Recount(counts map[string]int) {
	for _, d := range r.districts {
		d.Population = counts[d.ID]
	}
}

// Recompute derives traffic and crime from density and the security budget.
func (r *Registry) Recompute(securityBudget float64) {
	for _, d := range r.districts {
		density := d.Density()

		traffic := trafficForDensity(density)
		for i := 0; i < d.TrafficRelief; i++ {
			traffic = traffic.Down()
		}
		d.Traffic = traffic

		crime := crimeForDensity(density)
		switch {
		case securityBudget > 25:
			crime = crime.Down()
		case securityBudget < 10:
			crime = crime.Up()
		}
		d.Crime = crime
	}
}

func trafficForDensity(density float64) scale.Level {
	switch {
	case density > 15:
		return scale.VeryHigh
	case density > 10:
		return scale.High
	case density > 5:
		return scale.Medium
	default:
		return scale.Low
	}
}

func crimeForDensity(density float64) scale.Level {
	switch {
	case density > 12:
		return scale.High
	case density > 8:
		return scale.Medium
	default:
		return scale.Low
	}
}

// PollutionDownAll nudges every district's pollution one step down.
func (r *Registry) PollutionDownAll() {
	for _, d := range r.districts {
		d.Pollution = d.Pollution.Down()
	}
}

// Stats is the scored summary of a district.
type Stats struct {
	ID               string  `json:"id"`
	Population       int     `json:"population"`
	Businesses       float64 `json:"businesses"`
	TotalFacilities  int     `json:"total_facilities"`
	DevelopmentScore float64 `json:"development_score"`
	EnvironmentScore float64 `json:"environment_score"`
	SafetyScore      float64 `json:"safety_score"`
}

// Stats scores every district.
func (r *Registry) Stats(securityBudget float64) []Stats {
	out := make([]Stats, 0, len(r.districts))
	for _, d := range r.districts {
		out = append(out, Stats{
			ID:               d.ID,
			Population:       d.Population,
			Businesses:       d.Businesses,
			TotalFacilities:  d.Facilities.Total(),
			DevelopmentScore: developmentScore(d),
			EnvironmentScore: environmentScore(d),
			SafetyScore:      scale.Clamp100(100 - d.Crime.Penalty() + securityBudget*2),
		})
	}
	return out
}

func developmentScore(d *District) float64 {
	facility := float64(d.Facilities.Total()) * 2
	business := d.Businesses / 10
	var infra float64
	switch d.Development {
	case scale.VeryHigh:
		infra = 100
	case scale.High:
		infra = 80
	case scale.Medium:
		infra = 60
	default:
		infra = 40
	}
	return scale.Clamp((facility+business+infra)/3, 0, 100)
}

func environmentScore(d *District) float64 {
	parks := float64(d.Facilities.Parks) * 5
	factories := float64(d.Facilities.Factories) * 2
	return scale.Clamp100(100 - d.Pollution.Penalty() - factories + parks)
}
