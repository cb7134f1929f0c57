/*
sweeper.go - Background historical-marking sweeper

PURPOSE:
  Periodically re-walks the whole ledger and marks superseded checked-out
  rows historical. The per-edit reactions keep the marking current for rows
  touched through the engine, but rows imported in bulk or edited while the
  server was down can be stale; the sweeper repairs those.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Sweeps once immediately on start
  - Skips work silently when nothing changed

USAGE:
  sweeper := NewHistoricalSweeper(led)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - engine/reactions.go: ResweepHistorical, the full-ledger repair pass
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/innkeep/frontdesk/engine"
	"github.com/innkeep/frontdesk/ledger"
)

// HistoricalSweeper repairs historical marking across the whole ledger.
type HistoricalSweeper struct {
	Ledger        *ledger.Ledger
	SweepInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHistoricalSweeper creates a sweeper with the default interval.
func NewHistoricalSweeper(led *ledger.Ledger) *HistoricalSweeper {
	return &HistoricalSweeper{
		Ledger:        led,
		SweepInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (hs *HistoricalSweeper) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	hs.ticker = time.NewTicker(hs.SweepInterval)
	hs.wg.Add(1)

	go hs.run()

	log.Printf("[Sweeper] Started with sweep interval: %v", hs.SweepInterval)
}

// Stop stops the sweeper.
func (hs *HistoricalSweeper) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.ticker != nil {
		hs.ticker.Stop()
		close(hs.stop)
		hs.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (hs *HistoricalSweeper) run() {
	defer hs.wg.Done()

	// Run immediately on start
	hs.sweep()

	for {
		select {
		case <-hs.ticker.C:
			hs.sweep()
		case <-hs.stop:
			return
		}
	}
}

func (hs *HistoricalSweeper) sweep() {
	ctx := context.Background()

	marked, err := engine.ResweepHistorical(ctx, hs.Ledger)
	if err != nil {
		log.Printf("[Sweeper] Error sweeping ledger: %v", err)
		return
	}
	if marked > 0 {
		log.Printf("[Sweeper] Marked %d superseded rows historical", marked)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (hs *HistoricalSweeper) RunNow() {
	hs.sweep()
}
