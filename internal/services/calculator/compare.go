package calculator

import (
	"fmt"

	"github.com/bobmcallan/nivesh/internal/models"
)

// Compare lays funds side by side, one row per metric, in the order given.
// Unknown values render as "N/A".
func Compare(funds []models.MutualFund) models.Comparison {
	out := models.Comparison{
		SchemeCodes: make([]string, len(funds)),
		Names:       make([]string, len(funds)),
	}
	for i, f := range funds {
		out.SchemeCodes[i] = f.SchemeCode
		out.Names[i] = f.Name
	}

	row := func(metric string, value func(models.MutualFund) string) {
		r := models.ComparisonRow{Metric: metric, Values: make([]string, len(funds))}
		for i, f := range funds {
			r.Values[i] = value(f)
		}
		out.Rows = append(out.Rows, r)
	}

	row("Category", func(f models.MutualFund) string { return orNA(f.Category) })
	row("Risk", func(f models.MutualFund) string { return orNA(string(f.Risk)) })
	row("Alpha", func(f models.MutualFund) string {
		return ratio(f, fmt.Sprintf("%+.2f", f.RiskRatios.Alpha))
	})
	row("Sharpe Ratio", func(f models.MutualFund) string {
		return ratio(f, fmt.Sprintf("%.2f", f.RiskRatios.Sharpe))
	})
	row("Std Deviation", func(f models.MutualFund) string {
		return ratio(f, fmt.Sprintf("%.2f%%", f.RiskRatios.StandardDeviation))
	})
	for _, h := range []models.ReturnHorizon{models.Return1Y, models.Return3Y, models.Return5Y, models.ReturnRolling} {
		row(returnLabel(h), func(f models.MutualFund) string {
			if v, ok := f.Returns.Get(h); ok {
				return fmt.Sprintf("%.2f%%", v)
			}
			return "N/A"
		})
	}
	row("Expense Ratio", func(f models.MutualFund) string {
		if f.IsPlaceholder(models.FieldExpenseRatio) {
			return "N/A"
		}
		return fmt.Sprintf("%.2f%%", f.ExpenseRatio)
	})
	row("Exit Load", func(f models.MutualFund) string { return orNA(f.ExitLoad) })
	row("Manager Tenure", func(f models.MutualFund) string {
		if f.IsPlaceholder(models.FieldManager) {
			return "N/A"
		}
		return fmt.Sprintf("%d Years", f.Manager.TenureYears)
	})
	row("Score", func(f models.MutualFund) string {
		if f.IsPlaceholder(models.FieldScore) {
			return "N/A"
		}
		return fmt.Sprintf("%d/100", f.Score.Total)
	})

	return out
}

func ratio(f models.MutualFund, s string) string {
	if f.IsPlaceholder(models.FieldRiskRatios) {
		return "N/A"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func returnLabel(h models.ReturnHorizon) string {
	switch h {
	case models.Return1Y:
		return "1Y Return"
	case models.Return3Y:
		return "3Y CAGR"
	case models.Return5Y:
		return "5Y CAGR"
	case models.Return10Y:
		return "10Y CAGR"
	case models.ReturnRolling:
		return "Rolling Return"
	}
	return string(h)
}
