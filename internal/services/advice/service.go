// Package advice turns recommendations into prose and produces structured
// fund research through a language model. Every call is best-effort: a
// missing or failing model yields fallback text or nil, never a broken
// recommendation.
package advice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/models"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = common.FreshnessAdvice
)

// Outcome labels reported to Metrics.
const (
	OutcomeGenerated = "generated"
	OutcomeCached    = "cached"
	OutcomeFallback  = "fallback"
	OutcomeFailed    = "failed"
)

// Metrics receives advice outcomes by kind ("narrative", "analysis").
type Metrics interface {
	ObserveAdvice(kind, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAdvice(string, string) {}

// Service is the advice collaborator.
type Service struct {
	llm         interfaces.LLMClient
	store       interfaces.AnalysisStore
	metrics     Metrics
	logger      *common.Logger
	timeout     time.Duration
	cacheTTL    time.Duration
	analysisTTL time.Duration
	now         func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithStore caches narratives and analyses.
func WithStore(s interfaces.AnalysisStore) Option {
	return func(svc *Service) { svc.store = s }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(svc *Service) {
		if m != nil {
			svc.metrics = m
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.timeout = d
		}
	}
}

// WithCacheTTL sets how long a narrative is reused.
func WithCacheTTL(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.cacheTTL = d
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates an advice service. llm may be nil, in which case every
// narrative is the offline fallback and every analysis is unavailable.
func NewService(llm interfaces.LLMClient, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		llm:         llm,
		metrics:     nopMetrics{},
		logger:      logger,
		timeout:     DefaultTimeout,
		cacheTTL:    DefaultCacheTTL,
		analysisTTL: common.FreshnessDeepAnalysis,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a model is configured.
func (s *Service) Available() bool {
	return s.llm != nil
}

// Provider names the configured model provider, or "none".
func (s *Service) Provider() string {
	if s.llm == nil {
		return "none"
	}
	return s.llm.Name()
}

// NarrativeKey identifies a (profile, shortlist) pair for caching.
func NarrativeKey(profile models.UserInputs, shortlist []models.MutualFund) string {
	codes := make([]string, len(shortlist))
	for i, f := range shortlist {
		codes[i] = f.SchemeCode
	}
	raw := fmt.Sprintf("%s|%s|%s|%.2f|%s",
		profile.RiskProfile, profile.Horizon, profile.GoalType, profile.SIPAmount, strings.Join(codes, ","))
	sum := sha256.Sum256([]byte(raw))
	return "narrative-" + hex.EncodeToString(sum[:8])
}

// Narrative returns advice text for a profile and its shortlist. It never
// fails: model errors give the offline fallback and empty replies the empty
// fallback. Fallbacks are not cached.
func (s *Service) Narrative(ctx context.Context, profile models.UserInputs, shortlist []models.MutualFund) models.Advice {
	key := NarrativeKey(profile, shortlist)

	if s.llm == nil {
		s.metrics.ObserveAdvice("narrative", OutcomeFallback)
		return s.fallback(key, models.AdviceOfflineFallback)
	}

	if s.store != nil {
		if cached, err := s.store.GetAdvice(ctx, key); err == nil && !cached.Fallback && s.fresh(cached.GeneratedAt, s.cacheTTL) {
			s.metrics.ObserveAdvice("narrative", OutcomeCached)
			return *cached
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.GenerateContent(cctx, narrativePrompt(profile, shortlist))
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", s.llm.Name()).Msg("Advice: narrative generation failed, using fallback")
		s.metrics.ObserveAdvice("narrative", OutcomeFailed)
		return s.fallback(key, models.AdviceOfflineFallback)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.ObserveAdvice("narrative", OutcomeFallback)
		return s.fallback(key, models.AdviceEmptyFallback)
	}

	advice := models.Advice{
		Key:         key,
		Text:        text,
		Provider:    s.llm.Name(),
		GeneratedAt: s.now(),
	}
	if s.store != nil {
		if err := s.store.SaveAdvice(ctx, &advice); err != nil {
			s.logger.Warn().Err(err).Msg("Advice: failed to cache narrative")
		}
	}
	s.metrics.ObserveAdvice("narrative", OutcomeGenerated)
	return advice
}

func (s *Service) fresh(at time.Time, ttl time.Duration) bool {
	return common.IsFreshAt(at, ttl, s.now())
}

func (s *Service) fallback(key, text string) models.Advice {
	return models.Advice{Key: key, Text: text, Fallback: true, Provider: s.Provider(), GeneratedAt: s.now()}
}

// Analyze returns structured research for a fund, from cache when fresh.
// Any failure yields nil and an error wrapping models.ErrAdviceUnavailable.
func (s *Service) Analyze(ctx context.Context, fund models.MutualFund) (*models.DeepAnalysis, error) {
	if fund.SchemeCode == "" {
		return nil, fmt.Errorf("analysis requires a scheme code: %w", models.ErrAdviceUnavailable)
	}

	if s.store != nil {
		if cached, err := s.store.GetAnalysis(ctx, fund.SchemeCode); err == nil && s.fresh(cached.GeneratedAt, s.analysisTTL) {
			s.metrics.ObserveAdvice("analysis", OutcomeCached)
			return cached, nil
		} else if err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn().Err(err).Str("scheme_code", fund.SchemeCode).Msg("Advice: analysis cache read failed")
		}
	}

	if s.llm == nil {
		s.metrics.ObserveAdvice("analysis", OutcomeFallback)
		return nil, fmt.Errorf("no model configured: %w", models.ErrAdviceUnavailable)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.llm.GenerateJSON(cctx, analysisPrompt(fund))
	if err != nil {
		s.logger.Warn().Err(err).Str("scheme_code", fund.SchemeCode).Msg("Advice: analysis generation failed")
		s.metrics.ObserveAdvice("analysis", OutcomeFailed)
		return nil, fmt.Errorf("analyze %s: %w: %w", fund.SchemeCode, models.ErrAdviceUnavailable, err)
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("scheme_code", fund.SchemeCode).Msg("Advice: analysis reply was not valid JSON")
		s.metrics.ObserveAdvice("analysis", OutcomeFailed)
		return nil, err
	}
	analysis.SchemeCode = fund.SchemeCode
	analysis.Provider = s.llm.Name()
	analysis.GeneratedAt = s.now()

	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, analysis); err != nil {
			s.logger.Warn().Err(err).Str("scheme_code", fund.SchemeCode).Msg("Advice: failed to cache analysis")
		}
	}
	s.metrics.ObserveAdvice("analysis", OutcomeGenerated)
	return analysis, nil
}

// ParseAnalysis decodes a model reply into a DeepAnalysis, tolerating a
// surrounding markdown code fence.
func ParseAnalysis(raw string) (*models.DeepAnalysis, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("empty analysis reply: %w", models.ErrAdviceUnavailable)
	}

	var a models.DeepAnalysis
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w: %w", models.ErrAdviceUnavailable, err)
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}
	return &a, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
