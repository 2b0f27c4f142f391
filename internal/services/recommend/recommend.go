// Package recommend filters the fund universe against an investor profile
// and ranks the survivors by score.
package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

// DefaultLimit is the shortlist size.
const DefaultLimit = 3

// threeYearCategories are eligible for a three-year horizon.
var threeYearCategories = map[string]bool{
	models.CategoryLargeCap:   true,
	models.CategoryIndexFund:  true,
	models.CategoryLiquidDebt: true,
}

// riskEligible applies the risk-profile rule. Profiles other than Low and
// High apply no risk filter.
func riskEligible(f models.MutualFund, profile models.RiskProfile) bool {
	switch profile {
	case models.RiskLow:
		return f.Risk == models.RiskLow || f.Category == models.CategoryIndexFund
	case models.RiskHigh:
		return f.Risk == models.RiskHigh || f.Risk == models.RiskMedium
	default:
		return true
	}
}

// horizonEligible applies the horizon rule. Five and ten year horizons
// apply no category filter.
func horizonEligible(f models.MutualFund, h models.Horizon) bool {
	switch h {
	case models.Horizon1Y:
		return f.Category == models.CategoryLiquidDebt
	case models.Horizon3Y:
		return threeYearCategories[f.Category]
	default:
		return true
	}
}

// Recommend returns at most limit funds passing both rules, ordered by
// score descending. Ties keep universe order. An empty result is valid.
// Funds without a curated score cannot be ranked and are skipped.
func Recommend(funds []models.MutualFund, profile models.UserInputs, limit int) []models.MutualFund {
	if limit <= 0 {
		limit = DefaultLimit
	}

	eligible := make([]models.MutualFund, 0, len(funds))
	for _, f := range funds {
		if f.IsPlaceholder(models.FieldScore) {
			continue
		}
		if !riskEligible(f, profile.RiskProfile) || !horizonEligible(f, profile.Horizon) {
			continue
		}
		eligible = append(eligible, f.Clone())
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score.Total > eligible[j].Score.Total
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

// Allocation splits the monthly SIP equally across the shortlist, using
// floor(100/n) percent per fund.
func Allocation(funds []models.MutualFund, monthlySIP float64) []models.AllocationSlice {
	if len(funds) == 0 {
		return []models.AllocationSlice{}
	}
	pct := 100 / len(funds)
	out := make([]models.AllocationSlice, len(funds))
	for i, f := range funds {
		out[i] = models.AllocationSlice{
			SchemeCode: f.SchemeCode,
			Name:       f.Name,
			Percent:    pct,
			MonthlySIP: math.Floor(monthlySIP * float64(pct) / 100),
		}
	}
	return out
}

// Snapshotter provides the current universe.
type Snapshotter interface {
	Snapshot() universe.Snapshot
}

// Service ranks the live universe for a profile.
type Service struct {
	store  Snapshotter
	limit  int
	logger *common.Logger
}

// NewService creates a recommendation service.
func NewService(store Snapshotter, limit int, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{store: store, limit: limit, logger: logger}
}

// Recommend ranks one consistent snapshot of the universe.
func (s *Service) Recommend(ctx context.Context, profile models.UserInputs) *models.Recommendation {
	snap := s.store.Snapshot()
	funds := Recommend(snap.Funds, profile, s.limit)

	s.logger.Debug().
		Str("risk_profile", string(profile.RiskProfile)).
		Str("horizon", string(profile.Horizon)).
		Int("universe", len(snap.Funds)).
		Int("shortlist", len(funds)).
		Msg("Recommendation computed")

	return &models.Recommendation{
		Profile:    profile,
		Funds:      funds,
		Allocation: Allocation(funds, profile.SIPAmount),
		Generation: snap.Generation,
	}
}
