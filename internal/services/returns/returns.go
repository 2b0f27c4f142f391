// Package returns computes trailing returns, CAGR and risk statistics from a
// NAV series ordered most-recent-first.
package returns

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/nivesh/internal/models"
)

// TradingDaysPerYear converts calendar horizons into series offsets.
const TradingDaysPerYear = 252

// Result holds the metrics for one horizon. Nil metrics are unavailable.
type Result struct {
	Years    float64
	Index    int
	Clamped  bool
	NavNow   float64
	NavThen  float64
	Trailing *float64
	CAGR     *float64
}

// SampleIndex returns round(years*252) clamped to the last index of a series
// of the given length, and whether clamping occurred.
func SampleIndex(length int, years float64) (int, bool) {
	if length <= 0 {
		return 0, false
	}
	idx := int(math.Round(years * TradingDaysPerYear))
	if idx < 0 {
		idx = 0
	}
	if idx > length-1 {
		return length - 1, true
	}
	return idx, false
}

// Round2 rounds a percentage to two fractional digits, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func ptr(v float64) *float64 { return &v }

// Compute returns the trailing simple return and, for horizons of at least one
// year, the CAGR between series[0] and the horizon sample.
//
// An empty series yields ErrDataUnavailable. A non-positive NAV at either end
// yields ErrComputationUndefined with no metrics. Rounding happens once, on
// the final percentage.
func Compute(series []models.NavPoint, years float64) (Result, error) {
	if len(series) == 0 {
		return Result{}, fmt.Errorf("empty NAV series: %w", models.ErrDataUnavailable)
	}
	if years <= 0 || math.IsNaN(years) || math.IsInf(years, 0) {
		return Result{}, fmt.Errorf("horizon %v years: %w", years, models.ErrComputationUndefined)
	}

	idx, clamped := SampleIndex(len(series), years)
	res := Result{
		Years:   years,
		Index:   idx,
		Clamped: clamped,
		NavNow:  series[0].NAV,
		NavThen: series[idx].NAV,
	}

	if res.NavThen <= 0 || res.NavNow <= 0 {
		return res, fmt.Errorf("non-positive NAV (now %v, then %v): %w", res.NavNow, res.NavThen, models.ErrComputationUndefined)
	}

	res.Trailing = ptr(Round2(trailing(res.NavNow, res.NavThen)))
	if years >= 1 {
		res.CAGR = ptr(Round2(cagr(res.NavNow, res.NavThen, years)))
	}
	return res, nil
}

func trailing(now, then float64) float64 {
	return (now - then) / then * 100
}

func cagr(now, then, years float64) float64 {
	return (math.Pow(now/then, 1/years) - 1) * 100
}

// TrailingReturn is the rounded simple return over a horizon.
func TrailingReturn(series []models.NavPoint, years float64) (*float64, error) {
	res, err := Compute(series, years)
	if err != nil {
		return nil, err
	}
	return res.Trailing, nil
}

// CAGR is the rounded compound annual growth rate over a horizon. When strict
// is set a series shorter than the horizon is reported as unavailable rather
// than clamped.
func CAGR(series []models.NavPoint, years float64, strict bool) (*float64, error) {
	res, err := Compute(series, years)
	if err != nil {
		return nil, err
	}
	if strict && res.Clamped {
		return nil, fmt.Errorf("series of %d points is shorter than %v years: %w", len(series), years, models.ErrDataUnavailable)
	}
	return res.CAGR, nil
}

// RollingReturn averages the trailing return of a window (in years) sampled
// every stepDays across spanYears. It requires the series to reach the end of
// the last window.
func RollingReturn(series []models.NavPoint, windowYears, spanYears float64, stepDays int) (*float64, error) {
	window := int(math.Round(windowYears * TradingDaysPerYear))
	span := int(math.Round(spanYears * TradingDaysPerYear))
	if window <= 0 || stepDays <= 0 {
		return nil, fmt.Errorf("rolling window %v/%d: %w", windowYears, stepDays, models.ErrComputationUndefined)
	}
	if len(series) <= span+window {
		return nil, fmt.Errorf("series of %d points too short for rolling returns: %w", len(series), models.ErrDataUnavailable)
	}

	var sum float64
	var n int
	for o := 0; o <= span; o += stepDays {
		now, then := series[o].NAV, series[o+window].NAV
		if now <= 0 || then <= 0 {
			continue
		}
		sum += trailing(now, then)
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("no valid rolling windows: %w", models.ErrComputationUndefined)
	}
	return ptr(Round2(sum / float64(n))), nil
}

// Volatility is the annualised standard deviation of daily log returns over
// the most recent days observations, as a percentage.
func Volatility(series []models.NavPoint, days int) *float64 {
	n := min(days, len(series)-1)
	if n < 2 {
		return nil
	}

	rets := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		a, b := series[i].NAV, series[i+1].NAV
		if a <= 0 || b <= 0 {
			return nil
		}
		rets = append(rets, math.Log(a/b))
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var ss float64
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	sd := math.Sqrt(ss / float64(len(rets)-1))
	return ptr(Round2(sd * math.Sqrt(TradingDaysPerYear) * 100))
}

// MaxDrawdown is the largest peak-to-trough fall, as a positive percentage,
// over the most recent days observations.
func MaxDrawdown(series []models.NavPoint, days int) *float64 {
	n := min(days+1, len(series))
	if n < 2 {
		return nil
	}

	var peak, worst float64
	for i := n - 1; i >= 0; i-- {
		nav := series[i].NAV
		if nav <= 0 {
			return nil
		}
		if nav > peak {
			peak = nav
			continue
		}
		if dd := (peak - nav) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return ptr(Round2(worst))
}
