package interfaces

import (
	"context"

	"github.com/bobmcallan/nivesh/internal/models"
)

// StorageManager coordinates the cache stores of one backend
type StorageManager interface {
	NavHistoryStore() NavHistoryStore
	AnalysisStore() AnalysisStore

	// Backend names the storage engine ("badger", "surrealdb", "memory")
	Backend() string

	Close() error
}

// NavHistoryStore caches the last fetched NAV series per scheme.
// Missing entries return models.ErrNotFound.
type NavHistoryStore interface {
	GetHistory(ctx context.Context, schemeCode string) (*models.NavHistory, error)
	SaveHistory(ctx context.Context, history *models.NavHistory) error
}

// AnalysisStore caches advice collaborator output.
// Missing entries return models.ErrNotFound.
type AnalysisStore interface {
	GetAnalysis(ctx context.Context, schemeCode string) (*models.DeepAnalysis, error)
	SaveAnalysis(ctx context.Context, analysis *models.DeepAnalysis) error

	GetAdvice(ctx context.Context, key string) (*models.Advice, error)
	SaveAdvice(ctx context.Context, advice *models.Advice) error
}
