package fund

import (
	"fmt"
	"time"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/returns"
)

// cagrHorizons are only reported when the series reaches back that far.
var cagrHorizons = []struct {
	key   models.ReturnHorizon
	years float64
}{
	{models.Return3Y, 3},
	{models.Return5Y, 5},
	{models.Return10Y, 10},
}

const rollingStepDays = 21

// BuildLive computes the live overlay for a NAV history.
//
// 1y is the trailing simple return, falling back to the oldest point when the
// series is shorter than a year. 3y, 5y and 10y are CAGRs reported only when
// the series covers the full horizon; otherwise the key is left out so a merge
// keeps the previous value. rolling is the mean 1y return over the last three
// years sampled monthly.
func BuildLive(history *models.NavHistory, now time.Time) (models.LiveData, error) {
	latest, ok := history.Latest()
	if !ok {
		return models.LiveData{}, fmt.Errorf("no NAV points: %w", models.ErrDataUnavailable)
	}

	code := history.SchemeCode
	if code == "" {
		code = history.Meta.SchemeCode
	}

	live := models.LiveData{
		SchemeCode: code,
		Meta:       history.Meta,
		CurrentNav: latest.NAV,
		NavDate:    latest.Date,
		FetchedAt:  now,
		Returns:    models.FundReturns{},
		Stats: models.LiveStats{
			Points:        len(history.Points),
			Volatility1Y:  returns.Volatility(history.Points, returns.TradingDaysPerYear),
			MaxDrawdown1Y: returns.MaxDrawdown(history.Points, returns.TradingDaysPerYear),
		},
	}

	if len(history.Points) > 1 {
		if v, err := returns.TrailingReturn(history.Points, 1); err == nil && v != nil {
			live.Returns[models.Return1Y] = *v
		}
	}

	for _, h := range cagrHorizons {
		v, err := returns.CAGR(history.Points, h.years, true)
		if err != nil || v == nil {
			continue
		}
		live.Returns[h.key] = *v
	}

	if v, err := returns.RollingReturn(history.Points, 1, 3, rollingStepDays); err == nil {
		live.Returns[models.ReturnRolling] = *v
	}

	return live, nil
}
