package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/nivesh/internal/models"
)

type mockNAVClient struct {
	mu        sync.Mutex
	histories map[string]*models.NavHistory
	search    []models.SearchResult
	calls     map[string]int
}

func newMockNAVClient() *mockNAVClient {
	return &mockNAVClient{
		histories: make(map[string]*models.NavHistory),
		calls:     make(map[string]int),
	}
}

func (m *mockNAVClient) set(code string, latest, base float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := time.Now().UTC().Truncate(24 * time.Hour)
	pts := make([]models.NavPoint, 300)
	for i := range pts {
		pts[i] = models.NavPoint{Date: start.AddDate(0, 0, -i), NAV: base}
	}
	pts[0].NAV = latest
	m.histories[code] = &models.NavHistory{
		SchemeCode: code,
		Meta:       models.SchemeMeta{SchemeCode: code, SchemeName: "Live " + code},
		Points:     pts,
	}
}

func (m *mockNAVClient) GetHistory(_ context.Context, code string) (*models.NavHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[code]++
	h, ok := m.histories[code]
	if !ok {
		return nil, fmt.Errorf("scheme %s: %w", code, models.ErrDataUnavailable)
	}
	cp := *h
	cp.Points = append([]models.NavPoint(nil), h.Points...)
	return &cp, nil
}

func (m *mockNAVClient) Search(_ context.Context, q string) ([]models.SearchResult, error) {
	var out []models.SearchResult
	for _, r := range m.search {
		if strings.Contains(strings.ToLower(r.SchemeName), strings.ToLower(q)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockNAVClient) callCount(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[code]
}

type mockLLM struct {
	text string
	json string
	err  error
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) GenerateContent(context.Context, string) (string, error) { return m.text, m.err }

func (m *mockLLM) GenerateJSON(context.Context, string) (string, error) { return m.json, m.err }

func testFunds() []models.MutualFund {
	return []models.MutualFund{
		{
			ID: "1", SchemeCode: "100001", Name: "Alpha Small Cap", Category: "Small Cap", Risk: models.RiskHigh,
			Returns: models.FundReturns{models.Return1Y: 20, models.Return3Y: 25},
			Score:   models.FundScore{Total: 92}, Origin: models.OriginCurated,
		},
		{
			ID: "2", SchemeCode: "100002", Name: "Beta Flexi Cap", Category: "Flexi Cap", Risk: models.RiskMedium,
			Returns: models.FundReturns{models.Return1Y: 15, models.Return3Y: 18},
			Score:   models.FundScore{Total: 95}, Origin: models.OriginCurated,
		},
		{
			ID: "3", SchemeCode: "100003", Name: "Gamma Nifty 50 Index", Category: models.CategoryIndexFund, Risk: models.RiskLow,
			Returns: models.FundReturns{models.Return1Y: 10, models.Return3Y: 14},
			Score:   models.FundScore{Total: 88}, Origin: models.OriginCurated,
		},
	}
}
