// Package search runs latest-wins scheme searches per client session.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/models"
)

const (
	DefaultMinQueryLength = 3
	DefaultMaxResults     = 8
	DefaultSessionTTL     = 30 * time.Minute
)

// Result is the answer to one query. Stale is set when a newer query for
// the same session started before this one finished; stale results never
// replace the session's latest.
type Result struct {
	Session     string                `json:"session"`
	Query       string                `json:"query"`
	Seq         uint64                `json:"seq"`
	Results     []models.SearchResult `json:"results"`
	Stale       bool                  `json:"stale"`
	Unavailable bool                  `json:"unavailable,omitempty"`
}

type session struct {
	seq     uint64
	latest  Result
	touched time.Time
}

// Service wraps the NAV client's search with per-session sequencing.
type Service struct {
	client     interfaces.NAVClient
	logger     *common.Logger
	minLength  int
	maxResults int
	sessionTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates a search service. Non-positive limits take defaults.
func NewService(client interfaces.NAVClient, cfg common.SearchConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		client:     client,
		logger:     logger,
		minLength:  cfg.MinQueryLength,
		maxResults: cfg.MaxResults,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
	if s.minLength <= 0 {
		s.minLength = DefaultMinQueryLength
	}
	if s.maxResults <= 0 {
		s.maxResults = DefaultMaxResults
	}
	return s
}

// begin issues the next sequence number for a session.
func (s *Service) begin(id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, sess := range s.sessions {
		if now.Sub(sess.touched) > s.sessionTTL {
			delete(s.sessions, key)
		}
	}

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.seq++
	sess.touched = now
	return sess.seq
}

// finish records r as the session's latest unless a newer query began.
func (s *Service) finish(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[r.Session]
	if !ok || sess.seq != r.Seq {
		r.Stale = true
		return
	}
	sess.latest = *r
}

// Query searches for q on behalf of a session. Queries shorter than the
// minimum length return no results without calling the upstream. Upstream
// failures give an empty, Unavailable result rather than an error.
func (s *Service) Query(ctx context.Context, sessionID, q string) Result {
	q = strings.TrimSpace(q)
	r := Result{Session: sessionID, Query: q, Seq: s.begin(sessionID), Results: []models.SearchResult{}}

	if len([]rune(q)) >= s.minLength {
		found, err := s.client.Search(ctx, q)
		if err != nil {
			s.logger.Warn().Err(err).Str("query", q).Msg("Search: upstream failed")
			r.Unavailable = true
		} else {
			if len(found) > s.maxResults {
				found = found[:s.maxResults]
			}
			r.Results = found
		}
	}

	s.finish(&r)
	if r.Stale {
		s.logger.Debug().Str("session", sessionID).Uint64("seq", r.Seq).Msg("Search: superseded result discarded")
	}
	return r
}

// Latest returns the most recent non-stale result for a session.
func (s *Service) Latest(sessionID string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.latest.Seq == 0 {
		return Result{}, false
	}
	return sess.latest, true
}

// Sessions reports how many sessions are tracked.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
