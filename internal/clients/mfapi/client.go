// Package mfapi provides a client for the mfapi.in scheme NAV API
package mfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

const (
	DefaultBaseURL         = "https://api.mfapi.in/mf"
	DefaultTimeout         = 30 * time.Second
	DefaultRateLimit       = 10 // requests per second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = time.Minute

	navDateLayout = "02-01-2006"
)

// errSchemeNotFound marks answers that are well-formed but carry no scheme.
// They do not count against the circuit breaker.
var errSchemeNotFound = errors.New("scheme not found")

// flexString handles JSON values that may be either a number or a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexString(num.String())
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into string", string(data))
}

// Client implements the NAVClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	failures   uint32
	cooldown   time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open.
func WithBreaker(failures int, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		if failures > 0 {
			c.failures = uint32(failures)
		}
		if cooldown > 0 {
			c.cooldown = cooldown
		}
	}
}

// NewClient creates a new mfapi client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:   common.NewSilentLogger(),
		failures: DefaultBreakerFailures,
		cooldown: DefaultBreakerCooldown,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mfapi",
		MaxRequests: 1,
		Timeout:     c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errSchemeNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("NAV API circuit breaker state change")
		},
	})

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mfapi error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request through the circuit breaker
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		c.logger.Debug().Str("url", reqURL).Msg("mfapi request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, errSchemeNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(body)),
				Endpoint:   path,
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})
	return err
}

type schemeResponse struct {
	Meta struct {
		FundHouse      string     `json:"fund_house"`
		SchemeType     string     `json:"scheme_type"`
		SchemeCategory string     `json:"scheme_category"`
		SchemeCode     flexString `json:"scheme_code"`
		SchemeName     string     `json:"scheme_name"`
	} `json:"meta"`
	Data []struct {
		Date string     `json:"date"`
		NAV  flexString `json:"nav"`
	} `json:"data"`
	Status string `json:"status"`
}

type searchResponse struct {
	SchemeCode flexString `json:"schemeCode"`
	SchemeName string     `json:"schemeName"`
}

// GetHistory retrieves the NAV series for a scheme, most recent first.
// Every failure wraps models.ErrDataUnavailable.
func (c *Client) GetHistory(ctx context.Context, schemeCode string) (*models.NavHistory, error) {
	schemeCode = strings.TrimSpace(schemeCode)
	if schemeCode == "" {
		return nil, fmt.Errorf("empty scheme code: %w", models.ErrDataUnavailable)
	}

	var resp schemeResponse
	if err := c.get(ctx, "/"+url.PathEscape(schemeCode), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch scheme %s: %w: %w", schemeCode, models.ErrDataUnavailable, err)
	}

	if strings.EqualFold(resp.Status, "FAIL") || (resp.Meta.SchemeCode == "" && resp.Meta.SchemeName == "") {
		return nil, fmt.Errorf("scheme %s: %w: %w", schemeCode, models.ErrDataUnavailable, errSchemeNotFound)
	}

	points := make([]models.NavPoint, 0, len(resp.Data))
	skipped := 0
	for _, d := range resp.Data {
		date, err := time.Parse(navDateLayout, d.Date)
		if err != nil {
			skipped++
			continue
		}
		nav, err := decimal.NewFromString(strings.TrimSpace(string(d.NAV)))
		if err != nil {
			skipped++
			continue
		}
		points = append(points, models.NavPoint{Date: date, NAV: nav.InexactFloat64()})
	}
	if skipped > 0 {
		c.logger.Debug().Str("scheme_code", schemeCode).Int("skipped", skipped).Msg("mfapi: skipped malformed NAV points")
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("scheme %s returned no NAV data: %w", schemeCode, models.ErrDataUnavailable)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.After(points[j].Date)
	})

	code := string(resp.Meta.SchemeCode)
	if code == "" {
		code = schemeCode
	}

	return &models.NavHistory{
		SchemeCode: schemeCode,
		Meta: models.SchemeMeta{
			FundHouse:      resp.Meta.FundHouse,
			SchemeType:     resp.Meta.SchemeType,
			SchemeCategory: resp.Meta.SchemeCategory,
			SchemeCode:     code,
			SchemeName:     resp.Meta.SchemeName,
		},
		Points:    points,
		FetchedAt: time.Now(),
	}, nil
}

// Search finds schemes by name
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp []searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w: %w", query, models.ErrDataUnavailable, err)
	}

	results := make([]models.SearchResult, 0, len(resp))
	for _, r := range resp {
		code := string(r.SchemeCode)
		if code == "" {
			continue
		}
		if _, err := strconv.ParseInt(code, 10, 64); err != nil {
			continue
		}
		results = append(results, models.SearchResult{SchemeCode: code, SchemeName: r.SchemeName})
	}
	return results, nil
}

// BreakerState reports the circuit breaker state for health checks
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
