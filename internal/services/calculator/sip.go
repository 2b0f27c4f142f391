// Package calculator provides the SIP projection, goal planner, fund
// comparison and chart rendering.
package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/nivesh/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ProjectSIP compounds a monthly SIP with an annual step-up. Each month the
// instalment is added and the balance grows by rate/12; the instalment rises
// by the step-up after every twelfth month. Year rows are rounded to rupees.
func ProjectSIP(req models.SIPRequest) (models.SIPProjection, error) {
	if req.Years <= 0 {
		return models.SIPProjection{}, fmt.Errorf("years must be positive: %w", models.ErrComputationUndefined)
	}
	if req.MonthlySIP < 0 || req.AnnualReturn < 0 || req.StepUp < 0 {
		return models.SIPProjection{}, fmt.Errorf("amounts and rates must not be negative: %w", models.ErrComputationUndefined)
	}

	sip := decimal.NewFromFloat(req.MonthlySIP)
	growth := decimal.NewFromInt(1).Add(decimal.NewFromFloat(req.AnnualReturn).Div(hundred).Div(twelve))
	stepUp := decimal.NewFromInt(1).Add(decimal.NewFromFloat(req.StepUp).Div(hundred))

	invested := decimal.Zero
	value := decimal.Zero
	out := models.SIPProjection{Request: req, Years: make([]models.SIPYear, 0, req.Years)}

	for year := 1; year <= req.Years; year++ {
		invested = invested.Add(sip.Mul(twelve))
		for m := 0; m < 12; m++ {
			value = value.Add(sip).Mul(growth)
		}
		out.Years = append(out.Years, models.SIPYear{
			Year:     year,
			Invested: invested.Round(0).InexactFloat64(),
			Value:    value.Round(0).InexactFloat64(),
		})
		sip = sip.Mul(stepUp)
	}

	last := out.Years[len(out.Years)-1]
	out.Invested = last.Invested
	out.Value = last.Value
	out.Gain = last.Value - last.Invested
	return out, nil
}

// PlanGoal returns the monthly SIP, paid at the start of each month, that
// grows to the target: P = target / (((1+i)^n - 1) / i * (1+i)) with
// i = rate/12 and n = years*12. A zero rate spreads the target evenly.
func PlanGoal(req models.GoalRequest) (models.GoalPlan, error) {
	if req.Years <= 0 || req.TargetAmount <= 0 || req.AnnualReturn < 0 {
		return models.GoalPlan{}, fmt.Errorf("invalid goal: %w", models.ErrComputationUndefined)
	}

	n := float64(req.Years * 12)
	i := req.AnnualReturn / 100 / 12

	var monthly float64
	if i == 0 {
		monthly = req.TargetAmount / n
	} else {
		monthly = req.TargetAmount / ((math.Pow(1+i, n) - 1) / i * (1 + i))
	}
	sip := decimal.NewFromFloat(monthly).Round(0)

	invested := sip.Mul(decimal.NewFromFloat(n))
	return models.GoalPlan{
		Request:    req,
		MonthlySIP: sip.InexactFloat64(),
		Invested:   invested.InexactFloat64(),
		Gain:       decimal.NewFromFloat(req.TargetAmount).Sub(invested).InexactFloat64(),
	}, nil
}
