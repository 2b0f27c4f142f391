package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/fund"
)

// RecommendFunds ranks the universe for a profile and, when asked, attaches
// the advice narrative for the shortlist.
func (a *App) RecommendFunds(ctx context.Context, profile models.UserInputs, includeAdvice bool) *models.Recommendation {
	rec := a.Recommend.Recommend(ctx, profile)
	if includeAdvice {
		adv := a.Advice.Narrative(ctx, profile, rec.Funds)
		rec.Advice = &adv
	}
	return rec
}

// AnalyzeFund produces a deep analysis for a fund in the universe and folds
// it into the live record. The universe is left untouched when the analysis
// fails.
func (a *App) AnalyzeFund(ctx context.Context, code string) (models.MutualFund, *models.DeepAnalysis, error) {
	current, ok := a.Universe.Get(code)
	if !ok {
		return models.MutualFund{}, nil, fmt.Errorf("fund %s: %w", code, models.ErrNotFound)
	}

	analysis, err := a.Advice.Analyze(ctx, current)
	if err != nil {
		return current, nil, err
	}

	var updated models.MutualFund
	a.Universe.Update(func(funds []models.MutualFund) []models.MutualFund {
		for i := range funds {
			if funds[i].SchemeCode == code {
				funds[i] = fund.ApplyAnalysis(funds[i], analysis)
				updated = funds[i].Clone()
				break
			}
		}
		return funds
	}, time.Time{})

	return updated, analysis, nil
}

// FundHistory returns the NAV series for a scheme. A cached series younger
// than the history TTL is served as is; an older one is refetched and kept as
// the answer when the refetch fails.
func (a *App) FundHistory(ctx context.Context, code string) (*models.NavHistory, error) {
	store := a.Storage.NavHistoryStore()
	cached, err := store.GetHistory(ctx, code)
	if err == nil && common.IsFresh(cached.FetchedAt, common.FreshnessNavHistory) {
		return cached, nil
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		a.Logger.Warn().Err(err).Str("scheme_code", code).Msg("History cache read failed, fetching")
	}

	h, ferr := a.NAVClient.GetHistory(ctx, code)
	if ferr != nil {
		if cached != nil {
			a.Logger.Warn().Err(ferr).Str("scheme_code", code).Msg("History fetch failed, serving stale cache")
			return cached, nil
		}
		return nil, ferr
	}
	if h.FetchedAt.IsZero() {
		h.FetchedAt = time.Now()
	}
	if err := store.SaveHistory(ctx, h); err != nil {
		a.Logger.Warn().Err(err).Str("scheme_code", code).Msg("Failed to cache history")
	}
	return h, nil
}
