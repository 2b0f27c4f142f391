package navsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

// --- mocks ---

type mockNAVClient struct {
	mu        sync.Mutex
	histories map[string]*models.NavHistory
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     map[string]int
}

func newMockNAVClient() *mockNAVClient {
	return &mockNAVClient{
		histories: make(map[string]*models.NavHistory),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		calls:     make(map[string]int),
	}
}

func (m *mockNAVClient) setHistory(code string, latest, base float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[code] = navHistory(code, latest, base)
}

func (m *mockNAVClient) gate(code string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[code] = ch
	return ch
}

func (m *mockNAVClient) GetHistory(ctx context.Context, code string) (*models.NavHistory, error) {
	m.mu.Lock()
	m.calls[code]++
	gate := m.gates[code]
	delete(m.gates, code)
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch %s: %w: %w", code, models.ErrDataUnavailable, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[code]; err != nil {
		return nil, err
	}
	h, ok := m.histories[code]
	if !ok {
		return nil, fmt.Errorf("scheme %s: %w", code, models.ErrDataUnavailable)
	}
	cp := *h
	return &cp, nil
}

func (m *mockNAVClient) Search(ctx context.Context, q string) ([]models.SearchResult, error) {
	return nil, nil
}

type mockHistoryStore struct {
	mu    sync.Mutex
	saved map[string]*models.NavHistory
}

func (m *mockHistoryStore) GetHistory(ctx context.Context, code string) (*models.NavHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.saved[code]; ok {
		return h, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockHistoryStore) SaveHistory(ctx context.Context, h *models.NavHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]*models.NavHistory)
	}
	m.saved[h.SchemeCode] = h
	return nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	batches []string
	fetches map[models.FetchOutcome]int
	size    int
}

func (r *recordingMetrics) ObserveBatch(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, result)
}

func (r *recordingMetrics) ObserveFetch(o models.FetchOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetches == nil {
		r.fetches = make(map[models.FetchOutcome]int)
	}
	r.fetches[o]++
}

func (r *recordingMetrics) SetUniverseSize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = n
}

// --- helpers ---

// navHistory builds a 300-point series whose 1y return is latest vs base.
func navHistory(code string, latest, base float64) *models.NavHistory {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	pts := make([]models.NavPoint, 300)
	for i := range pts {
		pts[i] = models.NavPoint{Date: start.AddDate(0, 0, -i), NAV: base}
	}
	pts[0].NAV = latest
	return &models.NavHistory{
		SchemeCode: code,
		Meta:       models.SchemeMeta{SchemeCode: code, SchemeName: "Live " + code, FundHouse: "House"},
		Points:     pts,
	}
}

func seedFund(code string, oneYear float64, score int) models.MutualFund {
	return models.MutualFund{
		ID:         code,
		SchemeCode: code,
		Name:       "Fund " + code,
		Category:   "Flexi Cap",
		Risk:       models.RiskMedium,
		Returns:    models.FundReturns{models.Return1Y: oneYear, models.Return3Y: 15},
		Holdings:   []string{"HDFC Bank"},
		RiskRatios: models.RiskRatios{Sharpe: 1.2},
		Score:      models.FundScore{Total: score},
		Origin:     models.OriginCurated,
	}
}

func newTestService(client *mockNAVClient, opts ...Option) (*Service, *universe.Store) {
	store := universe.NewStore([]models.MutualFund{
		seedFund("A", 1, 90),
		seedFund("B", 2, 80),
		seedFund("C", 3, 70),
	}, nil)
	return NewService(client, store, nil, opts...), store
}

// --- tests ---

func TestSyncAll_UpdatesEveryFund(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.setHistory("C", 90, 100)

	history := &mockHistoryStore{}
	metrics := &recordingMetrics{}
	svc, store := newTestService(client, WithHistoryStore(history), WithMetrics(metrics))

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Updated)
	assert.Equal(t, 0, report.Failed)

	snap := store.Snapshot()
	a, _ := snap.Get("A")
	b, _ := snap.Get("B")
	c, _ := snap.Get("C")
	assert.Equal(t, 10.0, a.Returns[models.Return1Y])
	assert.Equal(t, 20.0, b.Returns[models.Return1Y])
	assert.Equal(t, -10.0, c.Returns[models.Return1Y])
	assert.Equal(t, 15.0, a.Returns[models.Return3Y], "3y not computable from a short series, prior kept")
	assert.Equal(t, 90, a.Score.Total)
	assert.Equal(t, "Fund A", a.Name)
	require.NotNil(t, a.Live)
	assert.Equal(t, 110.0, a.Live.CurrentNav)
	assert.False(t, snap.SyncedAt.IsZero())

	assert.Len(t, history.saved, 3)
	assert.Equal(t, []string{"success"}, metrics.batches)
	assert.Equal(t, 3, metrics.fetches[models.OutcomeUpdated])
	assert.Equal(t, 3, metrics.size)
	assert.Same(t, report, svc.LastReport())
}

func TestSyncAll_FailureKeepsPriorRecord(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.errs["C"] = fmt.Errorf("boom: %w", models.ErrDataUnavailable)

	svc, store := newTestService(client)
	before, _ := store.Get("C")

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Failed)

	after, _ := store.Get("C")
	assert.Equal(t, before, after)

	a, _ := store.Get("A")
	assert.Equal(t, 10.0, a.Returns[models.Return1Y])
}

func TestSyncAll_PublishesOnce(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.setHistory("C", 130, 100)

	svc, store := newTestService(client)
	ch, cancel := store.Subscribe(8)
	defer cancel()

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	snap := <-ch
	assert.Equal(t, uint64(1), snap.Generation)
	select {
	case extra := <-ch:
		t.Fatalf("expected a single publish, got generation %d", extra.Generation)
	default:
	}

	for _, f := range snap.Funds {
		assert.NotNil(t, f.Live, "fund %s published without its update", f.SchemeCode)
	}
}

func TestSyncAll_RejectsOverlap(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.setHistory("C", 130, 100)
	gate := client.gate("A")

	metrics := &recordingMetrics{}
	svc, _ := newTestService(client, WithMetrics(metrics))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.SyncAll(context.Background())
		assert.NoError(t, err)
	}()

	require.Eventually(t, svc.Running, time.Second, 5*time.Millisecond)

	_, err := svc.SyncAll(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(gate)
	<-done
	assert.False(t, svc.Running())

	client.mu.Lock()
	assert.Equal(t, 1, client.calls["B"], "overlapping request must not fetch")
	client.mu.Unlock()
	assert.Contains(t, metrics.batches, "skipped")
}

func TestSyncAll_DiscardsSupersededResponse(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.setHistory("C", 130, 100)
	gate := client.gate("A")

	svc, store := newTestService(client)

	done := make(chan *models.SyncReport)
	go func() {
		report, _ := svc.SyncAll(context.Background())
		done <- report
	}()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls["A"] == 1
	}, time.Second, 5*time.Millisecond)

	// a newer single refresh for A lands while the batch request is pending
	client.setHistory("A", 150, 100)
	f, err := svc.SyncOne(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 50.0, f.Returns[models.Return1Y])

	// the batch request for A now answers with older data
	client.setHistory("A", 105, 100)
	close(gate)
	report := <-done

	assert.Equal(t, 1, report.Stale)
	assert.Equal(t, 2, report.Updated)

	a, _ := store.Get("A")
	assert.Equal(t, 50.0, a.Returns[models.Return1Y], "superseded response must not overwrite newer data")
}

func TestSyncAll_FetchTimeout(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	client.setHistory("B", 120, 100)
	client.setHistory("C", 130, 100)
	client.gate("B") // never released

	svc, store := newTestService(client, WithFetchTimeout(50*time.Millisecond))

	start := time.Now()
	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Updated)

	b, _ := store.Get("B")
	assert.Nil(t, b.Live)
}

func TestSyncOne_SynthesizesUnknownScheme(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("999", 130, 100)

	svc, store := newTestService(client)
	f, err := svc.SyncOne(context.Background(), "999")
	require.NoError(t, err)

	assert.Equal(t, "search-999", f.ID)
	assert.Equal(t, models.OriginSearch, f.Origin)
	assert.True(t, f.IsPlaceholder(models.FieldScore))
	assert.Equal(t, 30.0, f.Returns[models.Return1Y])

	stored, ok := store.Get("999")
	require.True(t, ok)
	assert.Equal(t, f.ID, stored.ID)
	assert.Equal(t, 4, store.Len())
}

func TestSyncOne_FailureReturnsExisting(t *testing.T) {
	client := newMockNAVClient()
	svc, _ := newTestService(client)

	f, err := svc.SyncOne(context.Background(), "A")
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
	assert.Equal(t, "A", f.SchemeCode)

	_, err = svc.SyncOne(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestSyncOne_SupersededUnknownSchemeErrors(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("999", 130, 100)
	gate := client.gate("999")

	svc, store := newTestService(client)

	type outcome struct {
		f   models.MutualFund
		err error
	}
	done := make(chan outcome)
	go func() {
		f, err := svc.SyncOne(context.Background(), "999")
		done <- outcome{f, err}
	}()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls["999"] == 1
	}, time.Second, 5*time.Millisecond)

	// a newer request for the same scheme starts but has not published
	svc.seq.begin("999")
	close(gate)

	res := <-done
	assert.ErrorIs(t, res.err, models.ErrDataUnavailable)
	assert.Empty(t, res.f.SchemeCode)
	_, ok := store.Get("999")
	assert.False(t, ok)
}

func TestSyncOne_SupersededKnownSchemeReturnsCurrent(t *testing.T) {
	client := newMockNAVClient()
	client.setHistory("A", 110, 100)
	gate := client.gate("A")

	svc, _ := newTestService(client)

	done := make(chan models.MutualFund)
	go func() {
		f, err := svc.SyncOne(context.Background(), "A")
		assert.NoError(t, err)
		done <- f
	}()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.calls["A"] == 1
	}, time.Second, 5*time.Millisecond)

	svc.seq.begin("A")
	close(gate)

	f := <-done
	assert.Equal(t, "A", f.SchemeCode)
	assert.Equal(t, 1.0, f.Returns[models.Return1Y], "superseded response must not be applied")
}

func TestSequencer(t *testing.T) {
	q := newSequencer()
	first := q.begin("A")
	other := q.begin("B")
	second := q.begin("A")

	assert.False(t, q.isLatest("A", first))
	assert.True(t, q.isLatest("A", second))
	assert.True(t, q.isLatest("B", other))
	assert.Greater(t, second, first)
}
