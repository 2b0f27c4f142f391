// Package memory provides an in-process StorageManager for tests and for
// running without a cache directory.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/models"
)

// Manager keeps every cache in maps guarded by one mutex.
type Manager struct {
	mu       sync.RWMutex
	history  map[string]models.NavHistory
	analysis map[string]models.DeepAnalysis
	advice   map[string]models.Advice
}

// NewManager creates an empty in-memory manager.
func NewManager() *Manager {
	return &Manager{
		history:  make(map[string]models.NavHistory),
		analysis: make(map[string]models.DeepAnalysis),
		advice:   make(map[string]models.Advice),
	}
}

func (m *Manager) NavHistoryStore() interfaces.NavHistoryStore { return m }
func (m *Manager) AnalysisStore() interfaces.AnalysisStore     { return m }
func (m *Manager) Backend() string                             { return "memory" }
func (m *Manager) Close() error                                { return nil }

func (m *Manager) GetHistory(_ context.Context, schemeCode string) (*models.NavHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.history[schemeCode]
	if !ok {
		return nil, fmt.Errorf("history for '%s': %w", schemeCode, models.ErrNotFound)
	}
	h.Points = append([]models.NavPoint(nil), h.Points...)
	return &h, nil
}

func (m *Manager) SaveHistory(_ context.Context, history *models.NavHistory) error {
	if history == nil || history.SchemeCode == "" {
		return fmt.Errorf("history requires a scheme code")
	}
	h := *history
	h.Points = append([]models.NavPoint(nil), history.Points...)
	m.mu.Lock()
	m.history[h.SchemeCode] = h
	m.mu.Unlock()
	return nil
}

func (m *Manager) GetAnalysis(_ context.Context, schemeCode string) (*models.DeepAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analysis[schemeCode]
	if !ok {
		return nil, fmt.Errorf("analysis for '%s': %w", schemeCode, models.ErrNotFound)
	}
	return &a, nil
}

func (m *Manager) SaveAnalysis(_ context.Context, analysis *models.DeepAnalysis) error {
	if analysis == nil || analysis.SchemeCode == "" {
		return fmt.Errorf("analysis requires a scheme code")
	}
	m.mu.Lock()
	m.analysis[analysis.SchemeCode] = *analysis
	m.mu.Unlock()
	return nil
}

func (m *Manager) GetAdvice(_ context.Context, key string) (*models.Advice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.advice[key]
	if !ok {
		return nil, fmt.Errorf("advice '%s': %w", key, models.ErrNotFound)
	}
	return &a, nil
}

func (m *Manager) SaveAdvice(_ context.Context, advice *models.Advice) error {
	if advice == nil || advice.Key == "" {
		return fmt.Errorf("advice requires a key")
	}
	m.mu.Lock()
	m.advice[advice.Key] = *advice
	m.mu.Unlock()
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
