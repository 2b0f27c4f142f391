package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

type mockNAVClient struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]models.SearchResult
	gates   map[string]chan struct{}
	err     error
}

func (m *mockNAVClient) GetHistory(context.Context, string) (*models.NavHistory, error) {
	return nil, models.ErrDataUnavailable
}

func (m *mockNAVClient) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	gate := m.gates[q]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.results[q], nil
}

func hits(n int) []models.SearchResult {
	out := make([]models.SearchResult, n)
	for i := range out {
		out[i] = models.SearchResult{SchemeCode: fmt.Sprint(100 + i), SchemeName: fmt.Sprintf("Fund %d", i)}
	}
	return out
}

func TestQuery_ShortQueryNoUpstream(t *testing.T) {
	client := &mockNAVClient{}
	svc := NewService(client, common.SearchConfig{}, nil)

	r := svc.Query(context.Background(), "s1", " ab ")
	assert.Empty(t, r.Results)
	assert.NotNil(t, r.Results)
	assert.Empty(t, client.calls)
}

func TestQuery_TruncatesResults(t *testing.T) {
	client := &mockNAVClient{results: map[string][]models.SearchResult{"nifty": hits(20)}}
	svc := NewService(client, common.SearchConfig{MinQueryLength: 3, MaxResults: 8}, nil)

	r := svc.Query(context.Background(), "s1", "nifty")
	assert.Len(t, r.Results, 8)
	assert.False(t, r.Stale)

	latest, ok := svc.Latest("s1")
	require.True(t, ok)
	assert.Equal(t, "nifty", latest.Query)
}

func TestQuery_UpstreamFailure(t *testing.T) {
	client := &mockNAVClient{err: errors.New("connection refused")}
	svc := NewService(client, common.SearchConfig{}, nil)

	r := svc.Query(context.Background(), "s1", "parag")
	assert.True(t, r.Unavailable)
	assert.Empty(t, r.Results)
}

func TestQuery_LatestWins(t *testing.T) {
	gate := make(chan struct{})
	client := &mockNAVClient{
		results: map[string][]models.SearchResult{"qua": hits(1), "quant": hits(2)},
		gates:   map[string]chan struct{}{"qua": gate},
	}
	svc := NewService(client, common.SearchConfig{}, nil)

	slow := make(chan Result)
	go func() { slow <- svc.Query(context.Background(), "s1", "qua") }()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.calls) == 1
	}, time.Second, 5*time.Millisecond)

	fast := svc.Query(context.Background(), "s1", "quant")
	assert.False(t, fast.Stale)

	close(gate)
	old := <-slow
	assert.True(t, old.Stale)

	latest, ok := svc.Latest("s1")
	require.True(t, ok)
	assert.Equal(t, "quant", latest.Query)
	assert.Len(t, latest.Results, 2)
}

func TestQuery_SessionsIndependent(t *testing.T) {
	client := &mockNAVClient{results: map[string][]models.SearchResult{"hdfc": hits(1), "icici": hits(3)}}
	svc := NewService(client, common.SearchConfig{}, nil)

	svc.Query(context.Background(), "a", "hdfc")
	svc.Query(context.Background(), "b", "icici")

	a, _ := svc.Latest("a")
	b, _ := svc.Latest("b")
	assert.Equal(t, "hdfc", a.Query)
	assert.Equal(t, "icici", b.Query)

	_, ok := svc.Latest("c")
	assert.False(t, ok)
}

func TestQuery_PrunesIdleSessions(t *testing.T) {
	client := &mockNAVClient{}
	svc := NewService(client, common.SearchConfig{}, nil)
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.Query(context.Background(), "old", "ab")
	now = now.Add(DefaultSessionTTL + time.Minute)
	svc.Query(context.Background(), "new", "ab")

	assert.Equal(t, 1, svc.Sessions())
	_, ok := svc.Latest("old")
	assert.False(t, ok)
}
