// Package marketdata defines the external market-data collaborator: the
// tradable-symbol listing and historical daily bar fetch.
package marketdata

import (
	"context"
	"time"

	"tidemark/internal/domain"
)

// Provider is the remote market-data source. It may be slow or unreliable;
// callers treat repeated fetches of the same window as returning the same or
// a superset of bars, nothing stronger.
type Provider interface {
	// ListSymbols returns the current tradable universe.
	ListSymbols(ctx context.Context) ([]string, error)

	// FetchDaily returns the daily bars for a symbol within [start, end],
	// using the provider's adjusted-price convention.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}
