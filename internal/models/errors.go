package models

import "errors"

// Error taxonomy shared by components. Callers test with errors.Is.
var (
	// ErrDataUnavailable covers network failures, malformed payloads, unknown
	// scheme codes and empty series.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrComputationUndefined marks a metric that cannot be computed, such as
	// a return against a non-positive base NAV.
	ErrComputationUndefined = errors.New("computation undefined")
	// ErrAdviceUnavailable is returned when the LLM collaborator fails.
	ErrAdviceUnavailable = errors.New("advice unavailable")
	// ErrNotFound is returned by stores for missing keys.
	ErrNotFound = errors.New("not found")
)
