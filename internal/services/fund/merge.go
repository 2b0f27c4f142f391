// Package fund merges live NAV data and AI analysis into fund records.
package fund

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/nivesh/internal/models"
)

// Placeholder values for records synthesized from a search result
const (
	PlaceholderExitLoad  = "Refer to Scheme Documents"
	PlaceholderAUM       = "N/A"
	PlaceholderBenchmark = "Nifty TRI"
	PlaceholderManager   = "Expert Manager"
)

// Merge overlays live data onto an existing record. Only the live overlay and
// the return horizons present in live change; every other field, including
// Score, Holdings and RiskRatios, is carried over. The result shares no
// mutable state with either input, and merging the same live data twice gives
// the same record.
func Merge(existing models.MutualFund, live models.LiveData) models.MutualFund {
	out := existing.Clone()

	stats := live.Stats
	if live.Stats.Volatility1Y != nil {
		v := *live.Stats.Volatility1Y
		stats.Volatility1Y = &v
	}
	if live.Stats.MaxDrawdown1Y != nil {
		v := *live.Stats.MaxDrawdown1Y
		stats.MaxDrawdown1Y = &v
	}
	out.Live = &models.FundLive{
		CurrentNav:  live.CurrentNav,
		NavDate:     live.NavDate,
		LastUpdated: live.FetchedAt,
		Stats:       stats,
	}

	for h, v := range live.Returns {
		out.Returns[h] = v
	}

	// Descriptive fields are only filled when empty; a curated name is never
	// replaced by the official scheme name.
	if out.SchemeCode == "" {
		out.SchemeCode = live.SchemeCode
	}
	if out.Name == "" {
		out.Name = live.Meta.SchemeName
	}
	if out.Category == "" {
		out.Category = live.Meta.SchemeCategory
	}

	return out
}

// Synthesize builds a record for a scheme that is not in the curated universe.
// Every field without a real source is filled with a placeholder and listed in
// Placeholders so it can be rendered as such and later replaced.
func Synthesize(live models.LiveData) models.MutualFund {
	name := strings.TrimSpace(live.Meta.SchemeName)
	if name == "" {
		name = "Scheme " + live.SchemeCode
	}

	description := name + "."
	if house := strings.TrimSpace(live.Meta.FundHouse); house != "" {
		description = fmt.Sprintf("%s managed by %s.", name, house)
	}

	f := models.MutualFund{
		ID:            "search-" + live.SchemeCode,
		SchemeCode:    live.SchemeCode,
		Name:          name,
		Category:      live.Meta.SchemeCategory,
		Risk:          models.RiskMedium,
		ExitLoad:      PlaceholderExitLoad,
		AUM:           PlaceholderAUM,
		BenchmarkName: PlaceholderBenchmark,
		Returns:       models.FundReturns{},
		Manager: models.Manager{
			Name:        PlaceholderManager,
			Experience:  10,
			Rating:      4,
			TenureYears: 5,
		},
		Holdings:    []string{},
		Description: description,
		RedFlags:    []string{},
		Origin:      models.OriginSearch,
		Placeholders: []string{
			models.FieldRisk,
			models.FieldExpenseRatio,
			models.FieldExitLoad,
			models.FieldAUM,
			models.FieldBenchmark,
			models.FieldManager,
			models.FieldHoldings,
			models.FieldRiskRatios,
			models.FieldScore,
		},
	}

	return Merge(f, live)
}

// ApplyAnalysis folds a deep analysis into a record. RiskRatios are replaced
// only as a complete set; other fields are only filled where the record holds
// a placeholder. Score is never touched.
func ApplyAnalysis(existing models.MutualFund, a *models.DeepAnalysis) models.MutualFund {
	out := existing.Clone()
	if a == nil {
		return out
	}

	if a.RiskRatios != nil {
		out.RiskRatios = *a.RiskRatios
		out.ClearPlaceholder(models.FieldRiskRatios)
	}

	if a.ExpenseRatio != nil && out.IsPlaceholder(models.FieldExpenseRatio) {
		out.ExpenseRatio = *a.ExpenseRatio
		out.ClearPlaceholder(models.FieldExpenseRatio)
	}
	if a.ExitLoad != "" && out.IsPlaceholder(models.FieldExitLoad) {
		out.ExitLoad = a.ExitLoad
		out.ClearPlaceholder(models.FieldExitLoad)
	}
	if a.Benchmark != "" && out.IsPlaceholder(models.FieldBenchmark) {
		out.BenchmarkName = a.Benchmark
		out.ClearPlaceholder(models.FieldBenchmark)
	}
	if a.Manager != nil && a.Manager.Name != "" && out.IsPlaceholder(models.FieldManager) {
		out.Manager.Name = a.Manager.Name
		if a.Manager.Experience > 0 {
			out.Manager.Experience = a.Manager.Experience
		}
		out.ClearPlaceholder(models.FieldManager)
	}
	if len(out.RedFlags) == 0 && len(a.RedFlags) > 0 {
		out.RedFlags = append([]string(nil), a.RedFlags...)
	}

	return out
}
