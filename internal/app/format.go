package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/nivesh/internal/models"
)

// rupees formats a whole-rupee amount with Indian digit grouping.
func rupees(v float64) string {
	neg := v < 0
	digits := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)

	var parts []string
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		digits = strings.Join(append(parts, tail), ",")
	}
	if neg {
		return "-₹" + digits
	}
	return "₹" + digits
}

func formatReturns(r models.FundReturns) string {
	cells := make([]string, 0, len(models.ReturnHorizons))
	for _, d := range r.Display() {
		cells = append(cells, fmt.Sprintf("%s %s", d.Horizon, d.Text))
	}
	return strings.Join(cells, " · ")
}

func formatRecommendation(rec *models.Recommendation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Recommendations: %s risk, %s\n\n", rec.Profile.RiskProfile, rec.Profile.Horizon))
	sb.WriteString(fmt.Sprintf("**Monthly SIP:** %s\n\n", rupees(rec.Profile.SIPAmount)))

	if len(rec.Funds) == 0 {
		sb.WriteString("No fund in the universe matches this profile.\n")
	} else {
		sb.WriteString("| # | Fund | Code | Category | Risk | Score | 3Y | Allocation | SIP |\n")
		sb.WriteString("|---|------|------|----------|------|-------|----|------------|-----|\n")
		for i, f := range rec.Funds {
			three := "N/A"
			if v, ok := f.Returns.Get(models.Return3Y); ok {
				three = fmt.Sprintf("%.2f%%", v)
			}
			alloc := rec.Allocation[i]
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %d | %s | %d%% | %s |\n",
				i+1, f.Name, f.SchemeCode, f.Category, f.Risk, f.Score.Total, three, alloc.Percent, rupees(alloc.MonthlySIP)))
		}
	}

	if rec.Advice != nil {
		sb.WriteString("\n## Advice\n\n")
		sb.WriteString(rec.Advice.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatFund(f models.MutualFund) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", f.Name, f.SchemeCode))
	sb.WriteString(fmt.Sprintf("**Category:** %s · **Risk:** %s · **Score:** %s\n", f.Category, f.Risk, scoreText(f)))
	if f.Live != nil {
		sb.WriteString(fmt.Sprintf("**NAV:** %.4f (%s)\n", f.Live.CurrentNav, f.Live.NavDate.Format("02 Jan 2006")))
	}
	sb.WriteString(fmt.Sprintf("**Returns:** %s\n", formatReturns(f.Returns)))
	sb.WriteString(fmt.Sprintf("**Expense ratio:** %s · **Exit load:** %s · **AUM:** %s\n",
		placeholderOr(f, models.FieldExpenseRatio, fmt.Sprintf("%.2f%%", f.ExpenseRatio)), f.ExitLoad, f.AUM))
	sb.WriteString(fmt.Sprintf("**Manager:** %s · **Benchmark:** %s\n", f.Manager.Name, f.BenchmarkName))

	if !f.IsPlaceholder(models.FieldRiskRatios) {
		r := f.RiskRatios
		sb.WriteString(fmt.Sprintf("**Risk ratios:** Sharpe %.2f · Alpha %+.2f · Beta %.2f · Sortino %.2f · Std dev %.2f\n",
			r.Sharpe, r.Alpha, r.Beta, r.Sortino, r.StandardDeviation))
	}
	if len(f.RedFlags) > 0 {
		sb.WriteString("\n## Red flags\n\n")
		for _, rf := range f.RedFlags {
			sb.WriteString("- " + rf + "\n")
		}
	}
	if len(f.Placeholders) > 0 {
		sb.WriteString(fmt.Sprintf("\n_Estimated fields: %s_\n", strings.Join(f.Placeholders, ", ")))
	}
	return sb.String()
}

func scoreText(f models.MutualFund) string {
	return placeholderOr(f, models.FieldScore, strconv.Itoa(f.Score.Total))
}

func placeholderOr(f models.MutualFund, field, text string) string {
	if f.IsPlaceholder(field) {
		return "N/A"
	}
	return text
}

func formatSearch(query string, results []models.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No schemes found for %q.", query)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Search: %s\n\n", query))
	sb.WriteString("| Code | Scheme |\n|------|--------|\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.SchemeCode, r.SchemeName))
	}
	return sb.String()
}

func formatSyncReport(r *models.SyncReport) string {
	var sb strings.Builder
	sb.WriteString("# Universe Sync\n\n")
	sb.WriteString(fmt.Sprintf("**Updated:** %d · **Failed:** %d · **Superseded:** %d · **Generation:** %d\n",
		r.Updated, r.Failed, r.Stale, r.Generation))
	sb.WriteString(fmt.Sprintf("**Elapsed:** %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))

	if r.Failed > 0 {
		sb.WriteString("\n## Failures\n\n")
		for _, res := range r.Results {
			if res.Outcome == models.OutcomeFailed {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", res.SchemeCode, res.Error))
			}
		}
	}
	return sb.String()
}

func formatAnalysis(f models.MutualFund, a *models.DeepAnalysis) string {
	var sb strings.Builder
	sb.WriteString(formatFund(f))
	sb.WriteString("\n## Analysis\n\n")
	if a.AIStrategy != "" {
		sb.WriteString(a.AIStrategy + "\n\n")
	}
	if a.Estimated5Y != nil {
		sb.WriteString(fmt.Sprintf("**Estimated 5Y:** %.2f%%", *a.Estimated5Y))
		if a.CatAvg5Y != nil {
			sb.WriteString(fmt.Sprintf(" (category %.2f%%)", *a.CatAvg5Y))
		}
		sb.WriteString("\n")
	}
	if a.TaxSummary != "" {
		sb.WriteString(fmt.Sprintf("**Tax:** %s\n", a.TaxSummary))
	}
	sb.WriteString(fmt.Sprintf("\n_Generated by %s on %s_\n", a.Provider, a.GeneratedAt.Format("02 Jan 2006 15:04")))
	return sb.String()
}

func formatSIPProjection(p models.SIPProjection) string {
	var sb strings.Builder
	sb.WriteString("# SIP Projection\n\n")
	sb.WriteString(fmt.Sprintf("**Monthly SIP:** %s · **Return:** %.1f%% · **Step-up:** %.1f%%\n\n",
		rupees(p.Request.MonthlySIP), p.Request.AnnualReturn, p.Request.StepUp))
	sb.WriteString("| Year | Invested | Value |\n|------|----------|-------|\n")
	for _, y := range p.Years {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", y.Year, rupees(y.Invested), rupees(y.Value)))
	}
	sb.WriteString(fmt.Sprintf("\n**Invested:** %s · **Value:** %s · **Gain:** %s\n", rupees(p.Invested), rupees(p.Value), rupees(p.Gain)))
	return sb.String()
}
