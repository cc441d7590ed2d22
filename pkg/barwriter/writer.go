// Package barwriter persists received bars to per-contract output files.
package barwriter

import (
	"github.com/rxtech-lab/argo-snapshot/internal/types"
)

// BarWriter writes one contract's bars to an output destination.
//
// The driver opens exactly one writer per contract and finalizes it
// before opening the next one, so implementations never see interleaved
// contracts.
type BarWriter interface {
	// Write appends a single bar. Rows are written in arrival order.
	Write(bar types.Bar) error
	// Finalize flushes and closes any open output. It is idempotent:
	// calling it with nothing open is a no-op, and it is always called
	// before switching contracts and again at shutdown.
	Finalize() error
}

// Factory opens a writer for the given exchange-local ticker.
type Factory func(ticker string) (BarWriter, error)
