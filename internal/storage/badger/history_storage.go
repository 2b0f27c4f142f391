package badger

import (
	"context"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

type historyStorage struct {
	store  *Store
	logger *common.Logger
}

// NewHistoryStorage creates a NavHistoryStore backed by BadgerHold.
func NewHistoryStorage(store *Store, logger *common.Logger) *historyStorage {
	return &historyStorage{store: store, logger: logger}
}

func (s *historyStorage) GetHistory(_ context.Context, schemeCode string) (*models.NavHistory, error) {
	return load[models.NavHistory](s.store, "history", schemeCode)
}

func (s *historyStorage) SaveHistory(_ context.Context, history *models.NavHistory) error {
	var code string
	if history != nil {
		code = history.SchemeCode
	}
	if err := save(s.store, "history", code, history); err != nil {
		return err
	}
	s.logger.Debug().Str("scheme_code", code).Int("points", len(history.Points)).Msg("NAV history cached")
	return nil
}
