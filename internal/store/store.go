// Package store persists per-symbol daily bar datasets and the run history.
package store

import (
	"time"

	"tidemark/internal/domain"
)

// SyncStatus describes the outcome of merging freshly fetched bars into a
// symbol's stored dataset.
type SyncStatus string

const (
	// StatusSkipped means no new data was fetched or merged.
	StatusSkipped SyncStatus = "skipped"
	// StatusAppended means new bars were merged into an existing dataset.
	StatusAppended SyncStatus = "appended"
	// StatusReplaced means the dataset was written fresh: it was absent,
	// empty, or unreadable before the merge.
	StatusReplaced SyncStatus = "replaced"
)

// SyncResult reports the status of one symbol's sync and the number of dates
// the merge added to the dataset.
type SyncResult struct {
	Status    SyncStatus
	RowsAdded int
}

// BarStore owns per-symbol daily bar datasets. All other components treat the
// stored data as read-only input.
type BarStore interface {
	// LastDate returns the most recent date present in the symbol's dataset.
	// The second return value is false when the dataset is absent, empty, or
	// malformed.
	LastDate(symbol string) (time.Time, bool)

	// ReadBars loads the full dataset for a symbol in stored order.
	ReadBars(symbol string) ([]domain.Bar, error)

	// Merge folds freshly fetched bars into the symbol's dataset: dates are
	// coerced, rows with unparseable dates dropped, the result sorted
	// ascending and deduplicated by date with the incoming bar winning, then
	// written back in full.
	Merge(symbol string, incoming []domain.Bar) (SyncResult, error)

	// ListSymbols returns the symbols that have a stored dataset, sorted.
	ListSymbols() ([]string, error)
}
