package sweeper_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kinohall/seat-reservation/internal/sweeper"
)

type countingExpirer struct {
	calls atomic.Int64
}

func (c *countingExpirer) ExpireDue(context.Context) int {
	c.calls.Add(1)
	return 0
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	exp := &countingExpirer{}
	s := sweeper.New(exp, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return exp.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	// A zero interval must not panic time.NewTicker; the default applies.
	s := sweeper.New(&countingExpirer{}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx) // returns on ctx timeout without ticking
}
