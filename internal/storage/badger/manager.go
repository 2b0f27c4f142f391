package badger

import (
	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
)

// Manager implements interfaces.StorageManager on a single BadgerHold store.
type Manager struct {
	store    *Store
	history  *historyStorage
	analysis *analysisStorage
}

// NewManager opens the BadgerHold store at path.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Badger storage manager initialized")

	return &Manager{
		store:    store,
		history:  NewHistoryStorage(store, logger),
		analysis: NewAnalysisStorage(store, logger),
	}, nil
}

func (m *Manager) NavHistoryStore() interfaces.NavHistoryStore {
	return m.history
}

func (m *Manager) AnalysisStore() interfaces.AnalysisStore {
	return m.analysis
}

func (m *Manager) Backend() string {
	return "badger"
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
