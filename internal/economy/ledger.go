// Package economy provides the city ledger: tax revenue, budget-driven
// expenses, macro indicators, the per-district economic snapshot and
// bankruptcy handling.
package economy

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/ojrac/opensimplex-go"

	"github.com/talgya/civic-sim/internal/agents"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/scale"
	"github.com/talgya/civic-sim/internal/world"
)

// ErrInsufficientFunds is returned when a command costs more than the budget.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Config sets the ledger's starting conditions.
type Config struct {
	InitialBudget float64
	// WelfarePerCitizen is the annual welfare cost per resident on top of the
	// 5% budget slice.
	WelfarePerCitizen float64
	Seed              int64
}

// DefaultConfig returns the stock starting conditions.
func DefaultConfig() Config {
	return Config{InitialBudget: 50_000_000, WelfarePerCitizen: 240, Seed: 1}
}

// Expenses are annual outlays by category.
type Expenses struct {
	Education      float64 `json:"education"`
	Healthcare     float64 `json:"healthcare"`
	Security       float64 `json:"security"`
	Infrastructure float64 `json:"infrastructure"`
	Welfare        float64 `json:"welfare"`
}

// Total sums every category.
func (e Expenses) Total() float64 {
	return e.Education + e.Healthcare + e.Security + e.Infrastructure + e.Welfare
}

// Indicators are the market-sentiment gauges.
type Indicators struct {
	StockMarket        float64 `json:"stock_market"`
	BusinessConfidence float64 `json:"business_confidence"`
	ConsumerSpending   float64 `json:"consumer_spending"`
}

// DistrictEconomy is the per-district economic snapshot.
type DistrictEconomy struct {
	Businesses    float64 `json:"businesses"`
	Unemployment  float64 `json:"unemployment"` // Percent of working-age residents
	AverageIncome float64 `json:"average_income"`
}

// State is the full ledger. Budget is accumulated; everything else is
// recomputed each tick.
type State struct {
	Budget          float64                    `json:"budget"`
	TaxRevenue      float64                    `json:"tax_revenue"` // Annualized
	MonthlyExpenses float64                    `json:"monthly_expenses"`
	Expenses        Expenses                   `json:"expenses"`
	Unemployment    float64                    `json:"unemployment_rate"`
	Inflation       float64                    `json:"inflation_rate"`
	Growth          float64                    `json:"growth_rate"`
	GDPPerCapita    float64                    `json:"gdp_per_capita"`
	Indicators      Indicators                 `json:"indicators"`
	Districts       map[string]DistrictEconomy `json:"districts"`
	Insolvent       bool                       `json:"insolvent"`
	Bankruptcies    int                        `json:"bankruptcies"`
}

const defaultGDPPerCapita = 15000

// Report summarizes what happened during one ledger update.
type Report struct {
	Bankrupt bool
	LaidOff  int
}

// Ledger owns the economy. It is not safe for concurrent use.
type Ledger struct {
	state State
	cfg   Config
	noise opensimplex.Noise
	step  float64
}

// NewLedger creates a ledger with the stock indicators.
func NewLedger(cfg Config) *Ledger {
	return &Ledger{
		cfg:   cfg,
		noise: opensimplex.NewNormalized(cfg.Seed),
		state: State{
			Budget:       cfg.InitialBudget,
			Unemployment: 5,
			Inflation:    2.1,
			Growth:       3.2,
			GDPPerCapita: defaultGDPPerCapita,
			Indicators: Indicators{
				StockMarket:        1000,
				BusinessConfidence: 75,
				ConsumerSpending:   80,
			},
			Districts: make(map[string]DistrictEconomy),
		},
	}
}

// Budget returns the current budget.
func (l *Ledger) Budget() float64 { return l.state.Budget }

// Snapshot returns a copy of the ledger state.
func (l *Ledger) Snapshot() State {
	s := l.state
	s.Districts = make(map[string]DistrictEconomy, len(l.state.Districts))
	for k, v := range l.state.Districts {
		s.Districts[k] = v
	}
	return s
}

// Update recomputes the ledger from the whole population and policy.
func (l *Ledger) Update(citizens []*agents.Citizen, districts *world.Registry, pol policy.Snapshot) Report {
	s := &l.state
	l.step++

	s.TaxRevenue = taxRevenue(citizens, districts, pol.TaxRate)
	s.Expenses = l.expenses(pol, len(citizens))
	s.MonthlyExpenses = s.Expenses.Total() / 12

	net := s.TaxRevenue - s.MonthlyExpenses*12
	s.Budget += net / 12
	if s.Budget < 0 {
		s.Budget = 0
	}

	s.Unemployment = unemploymentRate(citizens)
	l.updateIndicators(citizens, pol)
	l.updateDistricts(citizens, districts, pol)

	var rep Report
	if s.Budget <= 0 {
		if !s.Insolvent {
			s.Insolvent = true
			s.Bankruptcies++
			rep.Bankrupt = true
			rep.LaidOff = bankrupt(citizens)
		}
	} else {
		s.Insolvent = false
	}
	return rep
}

func taxRevenue(citizens []*agents.Citizen, districts *world.Registry, taxRate float64) float64 {
	total := 0.0
	for _, c := range citizens {
		if !c.Alive || !c.PaysTax() {
			continue
		}
		mult := 1.0
		if districts != nil {
			if d := districts.Lookup(c.District); d != nil {
				mult = d.Overrides.TaxMultiplier
			}
		}
		total += c.Income * (taxRate / 100) * 12 * mult
	}
	return total
}

func (l *Ledger) expenses(pol policy.Snapshot, population int) Expenses {
	b := l.state.Budget
	return Expenses{
		Education:      b * pol.EducationBudget / 100,
		Healthcare:     b * pol.HealthBudget / 100,
		Security:       b * pol.SecurityBudget / 100,
		Infrastructure: b * pol.InfrastructureBudget / 100,
		Welfare:        b*0.05 + l.cfg.WelfarePerCitizen*float64(population),
	}
}

// unemploymentRate is unemployed working-age citizens over all working-age
// citizens, in percent. Zero when nobody is of working age.
func unemploymentRate(citizens []*agents.Citizen) float64 {
	working, unemployed := 0, 0
	for _, c := range citizens {
		if !c.Alive || !c.IsWorkingAge() {
			continue
		}
		working++
		if c.IsUnemployed() {
			unemployed++
		}
	}
	if working == 0 {
		return 0
	}
	return float64(unemployed) / float64(working) * 100
}

func (l *Ledger) updateIndicators(citizens []*agents.Citizen, pol policy.Snapshot) {
	s := &l.state
	ind := &s.Indicators

	if pol.TaxRate > 40 {
		s.Growth = max(-2, s.Growth-0.1)
		ind.BusinessConfidence = max(20, ind.BusinessConfidence-1)
	} else if pol.TaxRate < 25 {
		s.Growth = min(8, s.Growth+0.05)
		ind.BusinessConfidence = min(100, ind.BusinessConfidence+0.5)
	}
	if pol.EducationBudget > 30 {
		s.Growth = min(8, s.Growth+0.02)
	}
	if pol.HealthBudget > 25 {
		ind.ConsumerSpending = min(100, ind.ConsumerSpending+0.5)
	}
	if pol.SecurityBudget < 10 {
		ind.BusinessConfidence = max(20, ind.BusinessConfidence-0.8)
	}

	// Smooth seeded noise gives a bounded random walk sampled by update count.
	t := l.step * 0.05
	s.Inflation = scale.Clamp(s.Inflation+(l.noise.Eval2(t, 0)-0.5)*0.3, 0, 15)
	ind.StockMarket += (s.Growth-3)*10 + (l.noise.Eval2(t, 100)-0.5)*50
	ind.StockMarket = max(500, ind.StockMarket)

	income, n := 0.0, 0
	for _, c := range citizens {
		if !c.Alive {
			continue
		}
		income += c.Income * 12
		n++
	}
	if n == 0 {
		s.GDPPerCapita = defaultGDPPerCapita
	} else {
		s.GDPPerCapita = income / float64(n)
	}
}

func (l *Ledger) updateDistricts(citizens []*agents.Citizen, districts *world.Registry, pol policy.Snapshot) {
	if districts == nil {
		return
	}
	type tally struct {
		working, unemployed, residents int
		income                        float64
	}
	tallies := make(map[string]*tally, districts.Len())
	for _, c := range citizens {
		if !c.Alive {
			continue
		}
		t := tallies[c.District]
		if t == nil {
			t = &tally{}
			tallies[c.District] = t
		}
		t.residents++
		t.income += c.Income
		if c.IsWorkingAge() {
			t.working++
			if c.IsUnemployed() {
				t.unemployed++
			}
		}
	}

	for _, d := range districts.All() {
		switch {
		case pol.TaxRate > 35:
			d.Businesses = max(0, d.Businesses-0.5)
		case pol.TaxRate < 20:
			d.Businesses = min(d.Businesses*1.5, d.Businesses+1)
		}
		if pol.InfrastructureBudget > 25 {
			d.Businesses = min(d.Businesses*1.2, d.Businesses+2)
		}

		econ := DistrictEconomy{Businesses: d.Businesses}
		if t := tallies[d.ID]; t != nil {
			if t.working > 0 {
				econ.Unemployment = float64(t.unemployed) / float64(t.working) * 100
			}
			if t.residents > 0 {
				econ.AverageIncome = t.income / float64(t.residents)
			}
		}
		l.state.Districts[d.ID] = econ
	}
}

// bankrupt applies the one-time insolvency penalty and returns how many
// public-sector workers were laid off.
func bankrupt(citizens []*agents.Citizen) int {
	var public []*agents.Citizen
	for _, c := range citizens {
		if !c.Alive {
			continue
		}
		c.Happiness = scale.Clamp100(c.Happiness - 20)
		c.Health = scale.Clamp100(c.Health - 10)
		if c.Job.Sector.IsPublic() {
			public = append(public, c)
		}
	}
	n := len(public) / 5
	for _, c := range public[:n] {
		c.Job = agents.Unemployed
		c.Income = 0
	}
	return n
}

// Spend deducts amount from the budget or fails without side effects.
func (l *Ledger) Spend(amount float64, what string) error {
	if l.state.Budget < amount {
		return fmt.Errorf("%s costs $%s, budget is $%s: %w", what,
			humanize.Comma(int64(amount)), humanize.Comma(int64(l.state.Budget)), ErrInsufficientFunds)
	}
	l.state.Budget -= amount
	return nil
}

// Credit adds windfall income to the budget.
func (l *Ledger) Credit(amount float64) {
	l.state.Budget += amount
}
