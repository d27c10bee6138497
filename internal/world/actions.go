// District actions: facility construction and district-level policies.
// Every action moves ordinal levels by exactly one saturating step.
package world

import (
	"fmt"
	"math"

	"github.com/talgya/civic-sim/internal/scale"
)

// Build adds one facility to a district and applies its side effects.
// It returns a narrative line for the event feed.
func (r *Registry) Build(id string, f Facility) (string, error) {
	d, err := r.Get(id)
	if err != nil {
		return "", err
	}
	switch f {
	case School:
		d.Facilities.Schools++
		return fmt.Sprintf("New school in %s raises local education", d.Name), nil
	case Hospital:
		d.Facilities.Hospitals++
		return fmt.Sprintf("New hospital in %s improves healthcare", d.Name), nil
	case Factory:
		d.Facilities.Factories++
		d.Businesses += 5
		d.Pollution = d.Pollution.Up()
		return fmt.Sprintf("New factory in %s creates jobs", d.Name), nil
	case Park:
		d.Facilities.Parks++
		d.Pollution = d.Pollution.Down()
		return fmt.Sprintf("New park in %s improves the environment", d.Name), nil
	case Mall:
		d.Facilities.Malls++
		d.Businesses += 15
		return fmt.Sprintf("New shopping mall in %s boosts the economy", d.Name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFacility, f)
}

// District policy kinds.
const (
	PolicyZoningChange            = "zoning_change"
	PolicyTaxIncentive            = "tax_incentive"
	PolicyDevelopmentFocus        = "development_focus"
	PolicyEnvironmentalProtection = "environmental_protection"
	PolicySmartCity               = "smart_city_initiative"
)

// Zoning values understood by zoning_change.
const (
	ZoneResidentialOnly = "residential_only"
	ZoneCommercialFocus = "commercial_focus"
	ZoneIndustrial      = "industrial_zone"
)

// PolicyAction is one district-level policy request.
type PolicyAction struct {
	Kind string `json:"kind"`
	// Value carries the zoning or development-focus name.
	Value string `json:"value,omitempty"`
	// Multiplier is the tax multiplier for tax_incentive.
	Multiplier float64 `json:"multiplier,omitempty"`
}

// ApplyPolicy dispatches a district policy and returns a narrative line.
func (r *Registry) ApplyPolicy(id string, p PolicyAction) (string, error) {
	d, err := r.Get(id)
	if err != nil {
		return "", err
	}
	switch p.Kind {
	case PolicyZoningChange:
		return applyZoning(d, p.Value)
	case PolicyTaxIncentive:
		d.Overrides.TaxMultiplier = scale.Clamp(p.Multiplier, 0, 2)
		return fmt.Sprintf("Tax multiplier in %s set to %.2f", d.Name, d.Overrides.TaxMultiplier), nil
	case PolicyDevelopmentFocus:
		if p.Value == "" {
			return "", fmt.Errorf("%w: development focus for %s needs a value", ErrUnknownDistrictPolicy, d.ID)
		}
		d.Overrides.DevelopmentFocus = p.Value
		if p.Value != "balanced" {
			d.Development = d.Development.Up()
		}
		return fmt.Sprintf("%s now focuses on %s development", d.Name, p.Value), nil
	case PolicyEnvironmentalProtection:
		d.Pollution = d.Pollution.Down()
		d.Facilities.Parks = int(float64(d.Facilities.Parks) * 1.5)
		return fmt.Sprintf("Environmental protection program launched in %s", d.Name), nil
	case PolicySmartCity:
		d.TrafficRelief++
		d.Traffic = d.Traffic.Down()
		d.Development = scale.VeryHigh
		return fmt.Sprintf("Smart city initiative deployed in %s", d.Name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDistrictPolicy, p.Kind)
}

func applyZoning(d *District, zoning string) (string, error) {
	switch zoning {
	case ZoneResidentialOnly:
		d.Pollution = d.Pollution.Down()
		d.Overrides.Zoning = zoning
		return fmt.Sprintf("%s rezoned as purely residential", d.Name), nil
	case ZoneCommercialFocus:
		d.Businesses = math.Floor(d.Businesses * 1.3)
		d.Overrides.Zoning = zoning
		return fmt.Sprintf("%s focuses on commerce", d.Name), nil
	case ZoneIndustrial:
		d.Facilities.Factories = int(float64(d.Facilities.Factories) * 1.4)
		d.Pollution = d.Pollution.Up()
		d.Overrides.Zoning = zoning
		return fmt.Sprintf("%s expands its industrial zone", d.Name), nil
	}
	return "", fmt.Errorf("%w: zoning %q", ErrUnknownDistrictPolicy, zoning)
}
