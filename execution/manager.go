package execution

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-swap-engine/router"
)

// Manager drives a composed route through execution while tracking which
// segment is in flight, so callers can re-estimate the remaining wait
// without recomputing the path.
type Manager struct {
	composition *Composition
	quote       *router.ExchangeQuote

	mu      sync.Mutex
	current int
}

func NewManager(composition *Composition, quote *router.ExchangeQuote) *Manager {
	return &Manager{composition: composition, quote: quote}
}

// Run executes the composition and keeps the current segment index
// observable while it progresses.
func (m *Manager) Run(ctx context.Context) (*big.Int, error) {
	return m.composition.Execute(ctx, func(index int) {
		m.mu.Lock()
		m.current = index
		m.mu.Unlock()

		executionLog.Info().
			Int("segment", index).
			Dur("remaining_estimate", m.RemainingTime()).
			Msg("segment starting")
	})
}

// CurrentSegment returns the index of the segment in flight.
func (m *Manager) CurrentSegment() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// RemainingTime estimates the wait from the in-flight segment onward.
func (m *Manager) RemainingTime() time.Duration {
	return m.quote.TotalExecutionTimeFrom(m.CurrentSegment())
}

// ChainTimeEstimator estimates execution time from configured chain block
// times. Unknown chains fall back to a conservative default.
type ChainTimeEstimator struct {
	BlockTimes map[string]time.Duration
	Fallback   time.Duration

	// BlocksPerOperation is how many blocks an operation is assumed to
	// need to settle on each involved chain.
	BlocksPerOperation int
}

func (e ChainTimeEstimator) TotalTime(chainIDs []string) time.Duration {
	blocks := e.BlocksPerOperation
	if blocks <= 0 {
		blocks = 2
	}
	fallback := e.Fallback
	if fallback <= 0 {
		fallback = 12 * time.Second
	}

	var total time.Duration
	for _, chainID := range chainIDs {
		blockTime, ok := e.BlockTimes[chainID]
		if !ok || blockTime <= 0 {
			blockTime = fallback
		}
		total += time.Duration(blocks) * blockTime
	}
	return total
}
