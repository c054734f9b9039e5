// Package gather runs the incremental synchronization pass that keeps
// per-symbol daily datasets current with the market-data provider.
package gather

import (
	"context"
)

// Gatherer is the interface for data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run executes one gathering pass. It returns when the pass completes
	// or ctx is cancelled.
	Run(ctx context.Context) error
}
