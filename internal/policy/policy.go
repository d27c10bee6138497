// Package policy holds the city's budget-allocation sliders and one-shot special
// policies. Values are clamped on write, never rejected, and read by the rest of
// the simulation only through immutable Snapshots.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/civic-sim/internal/scale"
)

// Field identifies one bounded slider.
type Field string

const (
	FieldTax            Field = "tax"
	FieldEducation      Field = "education"
	FieldHealth         Field = "health"
	FieldSecurity       Field = "security"
	FieldInfrastructure Field = "infrastructure"
)

// Bounds returns the inclusive [min, max] range for a field.
func (f Field) Bounds() (float64, float64) {
	switch f {
	case FieldTax:
		return 0, 60
	case FieldSecurity:
		return 0, 40
	default:
		return 0, 50
	}
}

// Special names a one-shot policy.
type Special string

const (
	UniversalHealthcare Special = "universal_healthcare"
	FreeEducation       Special = "free_education"
	GreenEnergy         Special = "green_energy"
)

// ErrUnknownSpecialPolicy is returned for a special policy name outside the catalog.
var ErrUnknownSpecialPolicy = errors.New("unknown special policy")

// ParseSpecial validates a special policy name.
func ParseSpecial(s string) (Special, error) {
	switch Special(s) {
	case UniversalHealthcare, FreeEducation, GreenEnergy:
		return Special(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSpecialPolicy, s)
}

// Snapshot is the read-only view handed to agents and the economy each tick.
type Snapshot struct {
	TaxRate              float64   `json:"tax_rate"`
	EducationBudget      float64   `json:"education_budget"`
	HealthBudget         float64   `json:"health_budget"`
	SecurityBudget       float64   `json:"security_budget"`
	InfrastructureBudget float64   `json:"infrastructure_budget"`
	Active               []Special `json:"active_policies"`
}

// ServiceBudget is the combined education, health and security allocation.
func (s Snapshot) ServiceBudget() float64 {
	return s.EducationBudget + s.HealthBudget + s.SecurityBudget
}

// Change is one recorded slider movement.
type Change struct {
	Field Field   `json:"field"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Tick  uint64  `json:"tick"`
}

// Advisory is a narrative notice produced by a policy change.
type Advisory struct {
	Message  string
	Category string
}

// Update is a partial slider update; nil fields are left unchanged.
type Update struct {
	TaxRate              *float64 `json:"tax_rate,omitempty"`
	EducationBudget      *float64 `json:"education_budget,omitempty"`
	HealthBudget         *float64 `json:"health_budget,omitempty"`
	SecurityBudget       *float64 `json:"security_budget,omitempty"`
	InfrastructureBudget *float64 `json:"infrastructure_budget,omitempty"`
}

const maxHistory = 50

// Store owns the mutable policy state. It is not safe for concurrent use;
// the simulation serializes access.
type Store struct {
	values  map[Field]float64
	active  map[Special]bool
	history []Change
}

// NewStore returns a store with the default allocation.
func NewStore() *Store {
	return &Store{
		values: map[Field]float64{
			FieldTax:            15,
			FieldEducation:      25,
			FieldHealth:         20,
			FieldSecurity:       15,
			FieldInfrastructure: 20,
		},
		active: make(map[Special]bool),
	}
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	active := make([]Special, 0, len(s.active))
	for p := range s.active {
		active = append(active, p)
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	return Snapshot{
		TaxRate:              s.values[FieldTax],
		EducationBudget:      s.values[FieldEducation],
		HealthBudget:         s.values[FieldHealth],
		SecurityBudget:       s.values[FieldSecurity],
		InfrastructureBudget: s.values[FieldInfrastructure],
		Active:               active,
	}
}

// Set clamps v into the field's range, records the change and returns the
// stored value together with any advisories.
func (s *Store) Set(f Field, v float64, tick uint64) (float64, []Advisory) {
	old := s.values[f]
	lo, hi := f.Bounds()
	v = scale.Clamp(v, lo, hi)
	s.values[f] = v
	s.history = append(s.history, Change{Field: f, From: old, To: v, Tick: tick})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	return v, advise(f, v)
}

// Apply performs a partial update in a fixed field order.
func (s *Store) Apply(u Update, tick uint64) []Advisory {
	var out []Advisory
	set := func(f Field, v *float64) {
		if v == nil {
			return
		}
		_, adv := s.Set(f, *v, tick)
		out = append(out, adv...)
	}
	set(FieldTax, u.TaxRate)
	set(FieldEducation, u.EducationBudget)
	set(FieldHealth, u.HealthBudget)
	set(FieldSecurity, u.SecurityBudget)
	set(FieldInfrastructure, u.InfrastructureBudget)
	return out
}

// History returns the recorded changes, oldest first.
func (s *Store) History() []Change {
	out := make([]Change, len(s.history))
	copy(out, s.history)
	return out
}

// Activate turns on a special policy. Activating an already-active policy is a
// no-op and reports activated=false.
func (s *Store) Activate(p Special, tick uint64) (activated bool, adv []Advisory) {
	if s.active[p] {
		return false, nil
	}
	s.active[p] = true
	switch p {
	case UniversalHealthcare:
		_, adv = s.Set(FieldHealth, s.values[FieldHealth]+15, tick)
		adv = append(adv, Advisory{Message: "Universal healthcare is now free for every citizen", Category: "policy"})
	case FreeEducation:
		_, adv = s.Set(FieldEducation, s.values[FieldEducation]+10, tick)
		adv = append(adv, Advisory{Message: "Free education rolled out city-wide", Category: "policy"})
	case GreenEnergy:
		adv = append(adv, Advisory{Message: "The city is switching to green energy", Category: "policy"})
	}
	return true, adv
}

// TaxLevel classifies the tax rate for advisories.
type TaxLevel string

const (
	TaxLow     TaxLevel = "low"
	TaxMedium  TaxLevel = "medium"
	TaxHigh    TaxLevel = "high"
	TaxExtreme TaxLevel = "extreme"
)

// ClassifyTax maps a tax rate to its level.
func ClassifyTax(rate float64) TaxLevel {
	switch {
	case rate <= 20:
		return TaxLow
	case rate <= 35:
		return TaxMedium
	case rate <= 50:
		return TaxHigh
	default:
		return TaxExtreme
	}
}

func advise(f Field, v float64) []Advisory {
	switch f {
	case FieldTax:
		switch ClassifyTax(v) {
		case TaxHigh, TaxExtreme:
			return []Advisory{{Message: fmt.Sprintf("Tax at %.0f%% may cause unrest", v), Category: "warning"}}
		case TaxLow:
			return []Advisory{{Message: fmt.Sprintf("Low tax of %.0f%% encourages business", v), Category: "economic"}}
		}
	case FieldEducation:
		if v > 35 {
			return []Advisory{{Message: fmt.Sprintf("Education investment of %.0f%% will raise workforce quality", v), Category: "education"}}
		} else if v < 15 {
			return []Advisory{{Message: fmt.Sprintf("Education budget of %.0f%% may hurt the future", v), Category: "warning"}}
		}
	case FieldHealth:
		if v > 30 {
			return []Advisory{{Message: fmt.Sprintf("Health investment of %.0f%% improves public health", v), Category: "healthcare"}}
		} else if v < 15 {
			return []Advisory{{Message: fmt.Sprintf("Health budget of %.0f%% may cause health problems", v), Category: "warning"}}
		}
	case FieldSecurity:
		if v > 25 {
			return []Advisory{{Message: fmt.Sprintf("Security budget of %.0f%% strengthens public order", v), Category: "security"}}
		} else if v < 10 {
			return []Advisory{{Message: fmt.Sprintf("Security budget of %.0f%% may raise crime", v), Category: "warning"}}
		}
	case FieldInfrastructure:
		if v > 30 {
			return []Advisory{{Message: fmt.Sprintf("Infrastructure investment of %.0f%% accelerates development", v), Category: "infrastructure"}}
		} else if v < 15 {
			return []Advisory{{Message: fmt.Sprintf("Infrastructure budget of %.0f%% holds back development", v), Category: "warning"}}
		}
	}
	return nil
}
