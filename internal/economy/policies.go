// Facility costs and city-wide economic policies.
package economy

import (
	"errors"
	"fmt"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/world"
)

// ErrUnknownEconomicPolicy is returned for a policy outside the catalog.
var ErrUnknownEconomicPolicy = errors.New("unknown economic policy")

// facilityCosts are construction prices in dollars.
var facilityCosts = map[world.Facility]float64{
	world.Factory:  2_000_000,
	world.School:   1_500_000,
	world.Hospital: 3_000_000,
	world.Park:     800_000,
	world.Mall:     2_500_000,
}

// Cost returns the construction price of a facility.
func Cost(f world.Facility) (float64, error) {
	c, ok := facilityCosts[f]
	if !ok {
		return 0, fmt.Errorf("%w: %q", world.ErrUnknownFacility, f)
	}
	return c, nil
}

// Economic policy kinds.
const (
	StimulusPackage     = "stimulus_package"
	MinimumWageIncrease = "minimum_wage_increase"
	TradeAgreement      = "trade_agreement"
)

const (
	stimulusCost  = 10_000_000
	tradeWindfall = 5_000_000
	minimumWage   = 500
)

// ApplyPolicy runs an economic policy and returns a narrative line.
func (l *Ledger) ApplyPolicy(kind string, citizens []*agents.Citizen) (string, error) {
	switch kind {
	case StimulusPackage:
		if err := l.Spend(stimulusCost, "stimulus package"); err != nil {
			return "", err
		}
		l.state.Growth += 1.5
		return "A $10,000,000 economic stimulus package was deployed", nil
	case MinimumWageIncrease:
		raised := 0
		for _, c := range citizens {
			if c.Alive && c.PaysTax() && c.Income < minimumWage {
				c.Income = minimumWage
				raised++
			}
		}
		return fmt.Sprintf("Minimum wage raised to $%d/month for %d workers", minimumWage, raised), nil
	case TradeAgreement:
		l.state.Growth += 0.8
		l.Credit(tradeWindfall)
		return "A new trade agreement was signed", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEconomicPolicy, kind)
}
