// Package models defines data structures for Nivesh
package models

import (
	"fmt"
	"slices"
	"time"
)

// RiskProfile is the risk appetite of an investor or the risk level of a fund.
type RiskProfile string

const (
	RiskLow    RiskProfile = "Low"
	RiskMedium RiskProfile = "Medium"
	RiskHigh   RiskProfile = "High"
)

// Fund categories the recommendation rules depend on
const (
	CategoryIndexFund  = "Index Fund"
	CategoryLargeCap   = "Large Cap"
	CategoryLiquidDebt = "Debt / Liquid"
)

// ReturnHorizon keys a FundReturns entry.
type ReturnHorizon string

const (
	Return1Y      ReturnHorizon = "1y"
	Return3Y      ReturnHorizon = "3y"
	Return5Y      ReturnHorizon = "5y"
	Return10Y     ReturnHorizon = "10y"
	ReturnRolling ReturnHorizon = "rolling"
)

// ReturnHorizons lists the horizons in display order.
var ReturnHorizons = []ReturnHorizon{Return1Y, Return3Y, Return5Y, Return10Y, ReturnRolling}

// FundReturns maps a horizon to a percentage return. A missing key means the
// value is unknown, which is distinct from a 0% return.
type FundReturns map[ReturnHorizon]float64

// Get returns the value for a horizon and whether it is known.
func (r FundReturns) Get(h ReturnHorizon) (float64, bool) {
	v, ok := r[h]
	return v, ok
}

// Clone returns an independent copy.
func (r FundReturns) Clone() FundReturns {
	if r == nil {
		return FundReturns{}
	}
	out := make(FundReturns, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// DisplayReturn is a return value prepared for presentation.
type DisplayReturn struct {
	Horizon     ReturnHorizon `json:"horizon"`
	Value       float64       `json:"value"`
	Placeholder bool          `json:"placeholder"`
	Text        string        `json:"text"`
}

// Display renders every horizon, substituting "N/A" for unknown values.
// Zero placeholders only ever appear here, never in stored records.
func (r FundReturns) Display() []DisplayReturn {
	out := make([]DisplayReturn, 0, len(ReturnHorizons))
	for _, h := range ReturnHorizons {
		v, ok := r[h]
		d := DisplayReturn{Horizon: h, Value: v, Placeholder: !ok, Text: "N/A"}
		if ok {
			d.Text = fmt.Sprintf("%.2f%%", v)
		}
		out = append(out, d)
	}
	return out
}

// RiskRatios are curated or AI-sourced risk statistics. They are only ever
// replaced as a complete set.
type RiskRatios struct {
	Sharpe            float64 `json:"sharpe" yaml:"sharpe"`
	Alpha             float64 `json:"alpha" yaml:"alpha"`
	Beta              float64 `json:"beta" yaml:"beta"`
	Sortino           float64 `json:"sortino" yaml:"sortino"`
	StandardDeviation float64 `json:"standard_deviation" yaml:"standard_deviation"`
}

// FundScore is the curated quality score. Sub-score caps: returns 30,
// expense 15, manager 15, volatility 15, aum 10, drawdown 10, quality 5.
type FundScore struct {
	Total      int `json:"total" yaml:"total"`
	Returns    int `json:"returns" yaml:"returns"`
	Expense    int `json:"expense" yaml:"expense"`
	Manager    int `json:"manager" yaml:"manager"`
	Volatility int `json:"volatility" yaml:"volatility"`
	AUM        int `json:"aum" yaml:"aum"`
	Drawdown   int `json:"drawdown" yaml:"drawdown"`
	Quality    int `json:"quality" yaml:"quality"`
}

// SubTotal sums the component scores.
func (s FundScore) SubTotal() int {
	return s.Returns + s.Expense + s.Manager + s.Volatility + s.AUM + s.Drawdown + s.Quality
}

// Manager describes the fund manager
type Manager struct {
	Name        string  `json:"name" yaml:"name"`
	Experience  int     `json:"experience" yaml:"experience"`
	Rating      float64 `json:"rating" yaml:"rating"`
	TenureYears int     `json:"tenure_years" yaml:"tenure_years"`
}

// FundOrigin records where a record first came from.
type FundOrigin string

const (
	OriginCurated FundOrigin = "curated"
	OriginSearch  FundOrigin = "search"
)

// Fields that can hold synthesized placeholder values
const (
	FieldRisk         = "risk"
	FieldExpenseRatio = "expense_ratio"
	FieldExitLoad     = "exit_load"
	FieldAUM          = "aum"
	FieldBenchmark    = "benchmark"
	FieldManager      = "manager"
	FieldHoldings     = "holdings"
	FieldRiskRatios   = "risk_ratios"
	FieldScore        = "score"
	FieldDescription  = "description"
)

// LiveStats are computed from the NAV series on each refresh.
type LiveStats struct {
	Points        int      `json:"points"`
	Volatility1Y  *float64 `json:"volatility_1y,omitempty"`
	MaxDrawdown1Y *float64 `json:"max_drawdown_1y,omitempty"`
}

// FundLive is the overlay written by each successful refresh.
type FundLive struct {
	CurrentNav  float64   `json:"current_nav"`
	NavDate     time.Time `json:"nav_date"`
	LastUpdated time.Time `json:"last_updated"`
	Stats       LiveStats `json:"stats"`
}

// MutualFund is one record of the fund universe, keyed by SchemeCode.
type MutualFund struct {
	ID               string      `json:"id" yaml:"id"`
	SchemeCode       string      `json:"scheme_code" yaml:"scheme_code"`
	Name             string      `json:"name" yaml:"name"`
	Category         string      `json:"category" yaml:"category"`
	Risk             RiskProfile `json:"risk" yaml:"risk"`
	ExpenseRatio     float64     `json:"expense_ratio" yaml:"expense_ratio"`
	ExitLoad         string      `json:"exit_load" yaml:"exit_load"`
	AUM              string      `json:"aum" yaml:"aum"`
	AUMValue         float64     `json:"aum_value" yaml:"aum_value"`
	BenchmarkName    string      `json:"benchmark_name" yaml:"benchmark_name"`
	Returns          FundReturns `json:"returns" yaml:"returns"`
	BenchmarkReturns FundReturns `json:"benchmark_returns,omitempty" yaml:"benchmark_returns"`
	Manager          Manager     `json:"manager" yaml:"manager"`
	Holdings         []string    `json:"holdings" yaml:"holdings"`
	RiskRatios       RiskRatios  `json:"risk_ratios" yaml:"risk_ratios"`
	Score            FundScore   `json:"score" yaml:"score"`
	Description      string      `json:"description" yaml:"description"`
	RedFlags         []string    `json:"red_flags" yaml:"red_flags"`
	Origin           FundOrigin  `json:"origin" yaml:"-"`
	Placeholders     []string    `json:"placeholders,omitempty" yaml:"-"`
	Live             *FundLive   `json:"live,omitempty" yaml:"-"`
}

// IsPlaceholder reports whether a field holds a synthesized default.
func (f *MutualFund) IsPlaceholder(field string) bool {
	return slices.Contains(f.Placeholders, field)
}

// ClearPlaceholder marks a field as holding real data.
func (f *MutualFund) ClearPlaceholder(field string) {
	f.Placeholders = slices.DeleteFunc(f.Placeholders, func(p string) bool { return p == field })
	if len(f.Placeholders) == 0 {
		f.Placeholders = nil
	}
}

// Clone returns a deep copy sharing no mutable state with f.
func (f MutualFund) Clone() MutualFund {
	out := f
	out.Returns = f.Returns.Clone()
	if f.BenchmarkReturns != nil {
		out.BenchmarkReturns = f.BenchmarkReturns.Clone()
	}
	out.Holdings = slices.Clone(f.Holdings)
	out.RedFlags = slices.Clone(f.RedFlags)
	out.Placeholders = slices.Clone(f.Placeholders)
	if f.Live != nil {
		live := *f.Live
		if f.Live.Stats.Volatility1Y != nil {
			v := *f.Live.Stats.Volatility1Y
			live.Stats.Volatility1Y = &v
		}
		if f.Live.Stats.MaxDrawdown1Y != nil {
			v := *f.Live.Stats.MaxDrawdown1Y
			live.Stats.MaxDrawdown1Y = &v
		}
		out.Live = &live
	}
	return out
}

// LiveData is the per-refresh result for one scheme, produced from its NAV
// history. Returns holds only the horizons that could be computed.
type LiveData struct {
	SchemeCode string      `json:"scheme_code"`
	Meta       SchemeMeta  `json:"meta"`
	CurrentNav float64     `json:"current_nav"`
	NavDate    time.Time   `json:"nav_date"`
	FetchedAt  time.Time   `json:"fetched_at"`
	Returns    FundReturns `json:"returns"`
	Stats      LiveStats   `json:"stats"`
}
