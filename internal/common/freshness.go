package common

import "time"

// Cache lifetimes
const (
	FreshnessNavHistory   = 6 * time.Hour
	FreshnessDeepAnalysis = 7 * 24 * time.Hour
	FreshnessAdvice       = time.Hour
)

// IsFreshAt reports whether an entry stamped at updated is still within ttl
// at now. A zero stamp is never fresh.
func IsFreshAt(updated time.Time, ttl time.Duration, now time.Time) bool {
	return !updated.IsZero() && now.Sub(updated) < ttl
}

// IsFresh is IsFreshAt against the wall clock.
func IsFresh(updated time.Time, ttl time.Duration) bool {
	return IsFreshAt(updated, ttl, time.Now())
}
