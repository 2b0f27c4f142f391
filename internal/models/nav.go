package models

import "time"

// NavPoint is one (date, NAV) observation.
type NavPoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// SchemeMeta is the scheme descriptor returned alongside a NAV series.
type SchemeMeta struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     string `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`
}

// NavHistory is a NAV series ordered most-recent-first.
type NavHistory struct {
	SchemeCode string     `json:"scheme_code"`
	Meta       SchemeMeta `json:"meta"`
	Points     []NavPoint `json:"points"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Latest returns the most recent observation.
func (h *NavHistory) Latest() (NavPoint, bool) {
	if h == nil || len(h.Points) == 0 {
		return NavPoint{}, false
	}
	return h.Points[0], true
}

// SearchResult is one scheme matching a name query.
type SearchResult struct {
	SchemeCode string `json:"scheme_code"`
	SchemeName string `json:"scheme_name"`
}
