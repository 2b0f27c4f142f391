// Package navsync refreshes the fund universe from live NAV histories.
package navsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/fund"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

// ErrSyncInProgress is returned when a full sync is requested while one is
// already running.
var ErrSyncInProgress = errors.New("sync already in progress")

const (
	DefaultConcurrency  = 8
	DefaultFetchTimeout = 20 * time.Second
)

// Store is the universe the orchestrator owns.
type Store interface {
	Snapshot() universe.Snapshot
	Get(code string) (models.MutualFund, bool)
	Update(fn func(current []models.MutualFund) []models.MutualFund, syncedAt time.Time) universe.Snapshot
}

// Metrics receives sync observations.
type Metrics interface {
	ObserveBatch(result string, elapsed time.Duration)
	ObserveFetch(outcome models.FetchOutcome)
	SetUniverseSize(n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveBatch(string, time.Duration) {}
func (nopMetrics) ObserveFetch(models.FetchOutcome)   {}
func (nopMetrics) SetUniverseSize(int)                {}

// Service refreshes the universe from the NAV client.
type Service struct {
	client       interfaces.NAVClient
	store        Store
	history      interfaces.NavHistoryStore
	metrics      Metrics
	logger       *common.Logger
	seq          *sequencer
	running      atomic.Bool
	concurrency  int
	fetchTimeout time.Duration
	now          func() time.Time

	mu         sync.RWMutex
	lastReport *models.SyncReport
}

// Option configures the service
type Option func(*Service)

// WithHistoryStore persists every fetched NAV series.
func WithHistoryStore(h interfaces.NavHistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithConcurrency bounds the number of fetches in flight.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each individual fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a sync orchestrator.
func NewService(client interfaces.NAVClient, store Store, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		client:       client,
		store:        store,
		metrics:      nopMetrics{},
		logger:       logger,
		seq:          newSequencer(),
		concurrency:  DefaultConcurrency,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a full sync is in progress.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastReport returns the most recent full sync report, if any.
func (s *Service) LastReport() *models.SyncReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}

// fetchResult is one scheme's fetch, tagged with its request sequence.
type fetchResult struct {
	code   string
	seq    uint64
	live   *models.LiveData
	result models.FundSyncResult
}

// fetch retrieves and computes live data for one scheme under its own
// timeout. Failures are reported in the result, never returned.
func (s *Service) fetch(ctx context.Context, code string) fetchResult {
	seq := s.seq.begin(code)
	started := s.now()
	out := fetchResult{code: code, seq: seq, result: models.FundSyncResult{SchemeCode: code}}

	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	history, err := s.client.GetHistory(fctx, code)
	if err == nil {
		var live models.LiveData
		live, err = fund.BuildLive(history, s.now())
		if err == nil {
			out.live = &live
		}
	}

	out.result.Elapsed = s.now().Sub(started)
	if err != nil {
		out.result.Outcome = models.OutcomeFailed
		out.result.Error = err.Error()
		s.logger.Warn().Err(err).Str("scheme_code", code).Msg("NAV sync: fetch failed, keeping previous record")
		return out
	}

	out.result.Outcome = models.OutcomeUpdated
	if s.history != nil {
		if err := s.history.SaveHistory(ctx, history); err != nil {
			s.logger.Warn().Err(err).Str("scheme_code", code).Msg("NAV sync: failed to cache history")
		}
	}
	return out
}

// SyncAll refreshes every fund concurrently and publishes the universe once,
// after the whole batch has settled. A failed or superseded fetch leaves that
// fund's previous record in place.
func (s *Service) SyncAll(ctx context.Context) (*models.SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.ObserveBatch("skipped", 0)
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	started := s.now()
	codes := s.store.Snapshot().Codes()
	s.logger.Info().Int("funds", len(codes)).Msg("NAV sync: starting batch")

	results := make([]fetchResult, len(codes))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, code := range codes {
		g.Go(func() error {
			results[i] = s.fetch(ctx, code)
			return nil
		})
	}
	_ = g.Wait()

	// Apply onto the records current at publish time so a single-fund
	// refresh that landed mid-batch is not reverted.
	finished := s.now()
	snap := s.store.Update(func(current []models.MutualFund) []models.MutualFund {
		index := make(map[string]int, len(current))
		for i, f := range current {
			index[f.SchemeCode] = i
		}
		for i := range results {
			r := &results[i]
			if r.live == nil {
				continue
			}
			if !s.seq.isLatest(r.code, r.seq) {
				r.result.Outcome = models.OutcomeStale
				continue
			}
			if idx, ok := index[r.code]; ok {
				current[idx] = fund.Merge(current[idx], *r.live)
			}
		}
		return current
	}, finished)

	report := &models.SyncReport{
		StartedAt:  started,
		FinishedAt: finished,
		Generation: snap.Generation,
		Results:    make([]models.FundSyncResult, len(results)),
	}
	for i, r := range results {
		report.Results[i] = r.result
		switch r.result.Outcome {
		case models.OutcomeUpdated:
			report.Updated++
		case models.OutcomeFailed:
			report.Failed++
		case models.OutcomeStale:
			report.Stale++
		}
		s.metrics.ObserveFetch(r.result.Outcome)
	}

	batchResult := "success"
	if report.Failed > 0 {
		batchResult = "partial"
	}
	if len(results) > 0 && report.Failed == len(results) {
		batchResult = "failed"
	}
	s.metrics.ObserveBatch(batchResult, finished.Sub(started))
	s.metrics.SetUniverseSize(len(snap.Funds))

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	s.logger.Info().
		Int("updated", report.Updated).
		Int("failed", report.Failed).
		Int("stale", report.Stale).
		Uint64("generation", snap.Generation).
		Dur("elapsed", finished.Sub(started)).
		Msg("NAV sync: batch published")

	return report, nil
}

// SyncOne refreshes a single scheme, creating a placeholder record when the
// scheme is not yet in the universe. It may run alongside SyncAll.
func (s *Service) SyncOne(ctx context.Context, code string) (models.MutualFund, error) {
	r := s.fetch(ctx, code)
	s.metrics.ObserveFetch(r.result.Outcome)
	if r.live == nil {
		if existing, ok := s.store.Get(code); ok {
			return existing, fmt.Errorf("refresh %s: %s: %w", code, r.result.Error, models.ErrDataUnavailable)
		}
		return models.MutualFund{}, fmt.Errorf("refresh %s: %s: %w", code, r.result.Error, models.ErrDataUnavailable)
	}

	var updated models.MutualFund
	stale := false
	snap := s.store.Update(func(current []models.MutualFund) []models.MutualFund {
		if !s.seq.isLatest(code, r.seq) {
			stale = true
			return current
		}
		for i := range current {
			if current[i].SchemeCode == code {
				current[i] = fund.Merge(current[i], *r.live)
				updated = current[i].Clone()
				return current
			}
		}
		updated = fund.Synthesize(*r.live)
		return append(current, updated.Clone())
	}, time.Time{})
	s.metrics.SetUniverseSize(len(snap.Funds))

	if stale {
		s.logger.Debug().Str("scheme_code", code).Msg("NAV sync: single refresh superseded by a newer request")
		if existing, ok := s.store.Get(code); ok {
			return existing, nil
		}
		// the newer request has not published a record for this scheme yet
		return models.MutualFund{}, fmt.Errorf("refresh %s superseded: %w", code, models.ErrDataUnavailable)
	}

	s.logger.Debug().Str("scheme_code", code).Uint64("generation", snap.Generation).Msg("NAV sync: fund refreshed")
	return updated, nil
}

// sequencer hands out increasing request numbers per scheme so that only the
// response to the most recent request is applied.
type sequencer struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

func newSequencer() *sequencer {
	return &sequencer{latest: make(map[string]uint64)}
}

func (q *sequencer) begin(code string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.latest[code] = q.next
	return q.next
}

func (q *sequencer) isLatest(code string, seq uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest[code] == seq
}
