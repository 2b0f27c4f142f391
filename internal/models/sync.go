package models

import "time"

// FetchOutcome is the result of refreshing one scheme within a batch.
type FetchOutcome string

const (
	OutcomeUpdated FetchOutcome = "updated"
	OutcomeFailed  FetchOutcome = "failed"
	OutcomeStale   FetchOutcome = "stale"
)

// FundSyncResult records one scheme's outcome.
type FundSyncResult struct {
	SchemeCode string        `json:"scheme_code"`
	Outcome    FetchOutcome  `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// SyncReport summarises one full refresh batch.
type SyncReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Generation uint64           `json:"generation"`
	Updated    int              `json:"updated"`
	Failed     int              `json:"failed"`
	Stale      int              `json:"stale"`
	Results    []FundSyncResult `json:"results"`
}

// UniverseEvent is broadcast to subscribers whenever the universe is published.
type UniverseEvent struct {
	Type       string    `json:"type"`
	Generation uint64    `json:"generation"`
	Funds      int       `json:"funds"`
	SyncedAt   time.Time `json:"synced_at"`
	Changed    []string  `json:"changed,omitempty"`
}
