package badger

import (
	"context"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

type analysisStorage struct {
	store  *Store
	logger *common.Logger
}

// NewAnalysisStorage creates an AnalysisStore backed by BadgerHold.
func NewAnalysisStorage(store *Store, logger *common.Logger) *analysisStorage {
	return &analysisStorage{store: store, logger: logger}
}

func (s *analysisStorage) GetAnalysis(_ context.Context, schemeCode string) (*models.DeepAnalysis, error) {
	return load[models.DeepAnalysis](s.store, "analysis", schemeCode)
}

func (s *analysisStorage) SaveAnalysis(_ context.Context, analysis *models.DeepAnalysis) error {
	var code string
	if analysis != nil {
		code = analysis.SchemeCode
	}
	if err := save(s.store, "analysis", code, analysis); err != nil {
		return err
	}
	s.logger.Debug().Str("scheme_code", code).Msg("Analysis cached")
	return nil
}

func (s *analysisStorage) GetAdvice(_ context.Context, key string) (*models.Advice, error) {
	return load[models.Advice](s.store, "advice", key)
}

func (s *analysisStorage) SaveAdvice(_ context.Context, advice *models.Advice) error {
	var key string
	if advice != nil {
		key = advice.Key
	}
	return save(s.store, "advice", key, advice)
}
