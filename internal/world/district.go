// Package world holds the city geography: districts, their facilities and the
// derived pollution, traffic and crime levels that feed back into citizens.
package world

import (
	"errors"
	"fmt"

	"github.com/talgya/civic-sim/internal/scale"
)

// DistrictType is the zoning class of a district.
type DistrictType string

const (
	Commercial   DistrictType = "commercial"
	Industrial   DistrictType = "industrial"
	Residential  DistrictType = "residential"
	Agricultural DistrictType = "agricultural"
)

var (
	ErrUnknownDistrict       = errors.New("unknown district")
	ErrUnknownFacility       = errors.New("unknown facility")
	ErrUnknownDistrictPolicy = errors.New("unknown district policy")
)

// Rect is a district's bounding box in simulation space. Used only for placement.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Area returns W×H.
func (r Rect) Area() float64 { return r.W * r.H }

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) { return r.At(0.5, 0.5) }

// At maps fractional coordinates in [0,1]² onto the box.
func (r Rect) At(fx, fy float64) (float64, float64) {
	return r.X + r.W*fx, r.Y + r.H*fy
}

// Contains reports whether (x, y) falls inside the box.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Facility is a buildable structure.
type Facility string

const (
	School   Facility = "school"
	Hospital Facility = "hospital"
	Factory  Facility = "factory"
	Park     Facility = "park"
	Mall     Facility = "shopping_mall"
)

// ParseFacility validates a facility name. "mall" is accepted as an alias.
func ParseFacility(s string) (Facility, error) {
	switch Facility(s) {
	case School, Hospital, Factory, Park, Mall:
		return Facility(s), nil
	case "mall":
		return Mall, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFacility, s)
}

// Facilities counts every structure in a district.
type Facilities struct {
	Schools   int `json:"schools"`
	Hospitals int `json:"hospitals"`
	Factories int `json:"factories"`
	Parks     int `json:"parks"`
	Malls     int `json:"shopping_malls"`
}

// Total sums all facility counts.
func (f Facilities) Total() int {
	return f.Schools + f.Hospitals + f.Factories + f.Parks + f.Malls
}

// Overrides are per-district policy settings.
type Overrides struct {
	TaxMultiplier    float64 `json:"tax_multiplier"`
	DevelopmentFocus string  `json:"development_focus"`
	Zoning           string  `json:"zoning"`
}

// District is one region of the city.
type District struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DistrictType `json:"type"`
	Bounds     Rect         `json:"bounds"`
	Population int          `json:"population"`
	Businesses float64      `json:"businesses"`
	Facilities Facilities   `json:"facilities"`

	Pollution   scale.Level `json:"pollution"`
	Traffic     scale.Level `json:"traffic"`
	Crime       scale.Level `json:"crime"`
	Development scale.Level `json:"development"`

	// TrafficRelief counts smart-city steps subtracted from the density-derived traffic level.
	TrafficRelief int       `json:"traffic_relief"`
	Overrides     Overrides `json:"overrides"`
}

// Density is population per 10,000 square units of area.
func (d *District) Density() float64 {
	area := d.Bounds.Area()
	if area <= 0 {
		return 0
	}
	return float64(d.Population) / area * 10000
}

// CrimeMultiplier scales safety-need decay for residents.
func (d *District) CrimeMultiplier() float64 { return d.Crime.Multiplier() }

// TrafficMultiplier divides resident movement speed.
func (d *District) TrafficMultiplier() float64 { return d.Traffic.Multiplier() }

// PollutionHealthPenalty is the per-update health loss for residents.
// Zero at medium pollution and below.
func (d *District) PollutionHealthPenalty() float64 {
	switch d.Pollution {
	case scale.High:
		return 0.05
	case scale.VeryHigh:
		return 0.1
	}
	return 0
}

func defaultOverrides() Overrides {
	return Overrides{TaxMultiplier: 1.0, DevelopmentFocus: "balanced", Zoning: "mixed_use"}
}

// DefaultDistricts returns the four stock districts of a new city.
func DefaultDistricts() []*District {
	return []*District{
		{
			ID: "district1", Name: "Central District", Type: Commercial,
			Bounds:     Rect{X: 50, Y: 50, W: 280, H: 200},
			Businesses: 500,
			Facilities: Facilities{Schools: 8, Hospitals: 5, Factories: 20, Parks: 6, Malls: 3},
			Pollution:  scale.Medium, Traffic: scale.VeryHigh, Crime: scale.Low, Development: scale.High,
			Overrides: defaultOverrides(),
		},
		{
			ID: "district2", Name: "Industrial District", Type: Industrial,
			Bounds:     Rect{X: 350, Y: 50, W: 350, H: 200},
			Businesses: 800,
			Facilities: Facilities{Schools: 4, Hospitals: 2, Factories: 50, Parks: 2, Malls: 1},
			Pollution:  scale.High, Traffic: scale.High, Crime: scale.Medium, Development: scale.Medium,
			Overrides: defaultOverrides(),
		},
		{
			ID: "district3", Name: "Residential District", Type: Residential,
			Bounds:     Rect{X: 50, Y: 270, W: 400, H: 200},
			Businesses: 600,
			Facilities: Facilities{Schools: 12, Hospitals: 6, Factories: 15, Parks: 15, Malls: 4},
			Pollution:  scale.Low, Traffic: scale.Medium, Crime: scale.Low, Development: scale.High,
			Overrides: defaultOverrides(),
		},
		{
			ID: "district4", Name: "Agricultural District", Type: Agricultural,
			Bounds:     Rect{X: 470, Y: 270, W: 280, H: 200},
			Businesses: 200,
			Facilities: Facilities{Schools: 3, Hospitals: 1, Factories: 5, Parks: 8, Malls: 1},
			Pollution:  scale.VeryLow, Traffic: scale.Low, Crime: scale.VeryLow, Development: scale.Low,
			Overrides: defaultOverrides(),
		},
	}
}
