// Package sweeper runs the background pass that reclaims holds whose TTL
// lapsed without a confirm. The actual expiry logic lives in the engine and
// is idempotent; the sweeper only supplies the schedule, so running it
// alongside inline expiry (or a second sweeper) is harmless.
package sweeper

import (
	"context"
	"log"
	"time"
)

// Expirer is the slice of the reservation engine the sweeper needs.
type Expirer interface {
	ExpireDue(ctx context.Context) int
}

// Sweeper periodically expires overdue holds.
type Sweeper struct {
	engine   Expirer
	interval time.Duration
}

// New returns a sweeper ticking at the given interval. Intervals of zero or
// below fall back to 30 seconds.
func New(engine Expirer, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{engine: engine, interval: interval}
}

// Run blocks, sweeping once per interval until ctx is cancelled. Call it in
// its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			if n := s.engine.ExpireDue(ctx); n > 0 {
				log.Printf("sweeper: expired %d reservation(s)", n)
			}
		}
	}
}
