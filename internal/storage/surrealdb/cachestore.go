package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	tableNavHistory = "nav_history"
	tableAnalysis   = "fund_analysis"
	tableAdvice     = "advice"

	saveAttempts = 3
)

// CacheStore implements NavHistoryStore and AnalysisStore on SurrealDB.
type CacheStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewCacheStore(db *surrealdb.DB, logger *common.Logger) *CacheStore {
	return &CacheStore{db: db, logger: logger}
}

// upsert writes data under table:id, retrying transient failures.
func upsert[T any](ctx context.Context, db *surrealdb.DB, table, id string, data *T) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(table, id), "data": data}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		_, err := surrealdb.Query[[]T](ctx, db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save %s:%s after retries: %w", table, id, lastErr)
}

func get[T any](ctx context.Context, db *surrealdb.DB, table, id string) (*T, error) {
	data, err := surrealdb.Select[T](ctx, db, surrealmodels.NewRecordID(table, id))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s:%s: %w", table, id, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%s:%s: %w", table, id, models.ErrNotFound)
	}
	return data, nil
}

// --- NavHistoryStore ---

func (s *CacheStore) GetHistory(ctx context.Context, schemeCode string) (*models.NavHistory, error) {
	return get[models.NavHistory](ctx, s.db, tableNavHistory, schemeCode)
}

func (s *CacheStore) SaveHistory(ctx context.Context, history *models.NavHistory) error {
	if history == nil || history.SchemeCode == "" {
		return fmt.Errorf("history requires a scheme code")
	}
	if err := upsert(ctx, s.db, tableNavHistory, history.SchemeCode, history); err != nil {
		return err
	}
	s.logger.Debug().Str("scheme_code", history.SchemeCode).Int("points", len(history.Points)).Msg("NAV history cached")
	return nil
}

// --- AnalysisStore ---

func (s *CacheStore) GetAnalysis(ctx context.Context, schemeCode string) (*models.DeepAnalysis, error) {
	return get[models.DeepAnalysis](ctx, s.db, tableAnalysis, schemeCode)
}

func (s *CacheStore) SaveAnalysis(ctx context.Context, analysis *models.DeepAnalysis) error {
	if analysis == nil || analysis.SchemeCode == "" {
		return fmt.Errorf("analysis requires a scheme code")
	}
	return upsert(ctx, s.db, tableAnalysis, analysis.SchemeCode, analysis)
}

func (s *CacheStore) GetAdvice(ctx context.Context, key string) (*models.Advice, error) {
	return get[models.Advice](ctx, s.db, tableAdvice, key)
}

func (s *CacheStore) SaveAdvice(ctx context.Context, advice *models.Advice) error {
	if advice == nil || advice.Key == "" {
		return fmt.Errorf("advice requires a key")
	}
	return upsert(ctx, s.db, tableAdvice, advice.Key, advice)
}
