// Package interfaces defines service contracts for Nivesh
package interfaces

import (
	"context"

	"github.com/bobmcallan/nivesh/internal/models"
)

// NAVClient provides access to scheme NAV histories
type NAVClient interface {
	// GetHistory retrieves the full NAV series for a scheme, most recent first.
	// A missing scheme or empty series is an error, never an empty success.
	GetHistory(ctx context.Context, schemeCode string) (*models.NavHistory, error)

	// Search finds schemes whose name matches the query
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// LLMClient generates text from a prompt
type LLMClient interface {
	// Name identifies the provider in logs and records
	Name() string

	// GenerateContent returns free text for a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// GenerateJSON asks the model for a single JSON object and returns it raw
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}
