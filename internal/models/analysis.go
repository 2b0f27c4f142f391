package models

import (
	"encoding/json"
	"time"
)

// AnalysisManager is the manager block of a deep analysis.
type AnalysisManager struct {
	Name       string `json:"name"`
	Experience int    `json:"exp"`
}

// DeepAnalysis is the structured per-fund research record produced by the
// advice collaborator. Nil pointer fields were not supplied.
type DeepAnalysis struct {
	SchemeCode   string           `json:"scheme_code"`
	AIStrategy   string           `json:"aiStrategy"`
	Benchmark    string           `json:"benchmark"`
	CatAvg5Y     *float64         `json:"catAvg5y,omitempty"`
	Estimated5Y  *float64         `json:"estimated5y,omitempty"`
	ExitLoad     string           `json:"exitLoad"`
	ExpenseRatio *float64         `json:"expenseRatio,omitempty"`
	Manager      *AnalysisManager `json:"manager,omitempty"`
	RedFlags     []string         `json:"redFlags"`
	RiskRatios   *RiskRatios      `json:"riskRatios,omitempty"`
	TaxSummary   string           `json:"taxSummary"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Provider     string           `json:"provider"`
}

// reportedRatios records which risk ratios a reply actually carried.
type reportedRatios struct {
	Sharpe            *float64 `json:"sharpe"`
	Alpha             *float64 `json:"alpha"`
	Beta              *float64 `json:"beta"`
	Sortino           *float64 `json:"sortino"`
	StandardDeviation *float64 `json:"standard_deviation"`
}

func (r *reportedRatios) complete() (*RiskRatios, bool) {
	if r == nil || r.Sharpe == nil || r.Alpha == nil || r.Beta == nil || r.Sortino == nil || r.StandardDeviation == nil {
		return nil, false
	}
	return &RiskRatios{
		Sharpe:            *r.Sharpe,
		Alpha:             *r.Alpha,
		Beta:              *r.Beta,
		Sortino:           *r.Sortino,
		StandardDeviation: *r.StandardDeviation,
	}, true
}

// UnmarshalJSON keeps RiskRatios nil unless all five ratios are present, so a
// partial set can never replace a fund's ratios.
func (a *DeepAnalysis) UnmarshalJSON(data []byte) error {
	type plain DeepAnalysis
	var aux struct {
		plain
		RiskRatios *reportedRatios `json:"riskRatios"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = DeepAnalysis(aux.plain)
	a.RiskRatios, _ = aux.RiskRatios.complete()
	return nil
}

// Default narrative strings used when the advice collaborator is unavailable
const (
	AdviceEmptyFallback   = "Unable to fetch personalized advice at this moment."
	AdviceOfflineFallback = "Personalized AI financial guidance is currently offline. Please review the manual recommendations below."
)

// Advice is the narrative summary for a profile and shortlist.
type Advice struct {
	Key         string    `json:"key"`
	Text        string    `json:"text"`
	Fallback    bool      `json:"fallback"`
	Provider    string    `json:"provider,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
