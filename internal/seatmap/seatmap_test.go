package seatmap_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/seatmap"
)

func newShowMap(t *testing.T, seatIDs ...uint64) *seatmap.ShowMap {
	t.Helper()
	m := seatmap.New()
	return m.Register(1, seatIDs)
}

func TestRegisterInitializesAllSeatsFree(t *testing.T) {
	m := seatmap.New()
	sm := m.Register(1, []uint64{1, 2, 3})

	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Same(t, sm, got)
	_, ok = m.Get(2)
	assert.False(t, ok)

	snap := sm.Snapshot()
	require.Len(t, snap, 3)
	for _, st := range snap {
		assert.Equal(t, domain.SeatFree, st.Status)
	}
	assert.Equal(t, 3, sm.FreeCount())
}

func TestHoldAllOrNothing(t *testing.T) {
	sm := newShowMap(t, 1, 2, 3)
	exp := time.Now().Add(time.Minute)

	require.NoError(t, sm.Hold([]uint64{2}, "first", exp))

	// Second hold wants seats 1 and 2; seat 2 is taken, so seat 1 must not
	// be left held behind.
	err := sm.Hold([]uint64{1, 2}, "second", exp)
	require.ErrorIs(t, err, domain.ErrSeatUnavailable)

	assert.Equal(t, []uint64{1, 3}, sm.SeatsByStatus(domain.SeatFree))
	assert.Equal(t, []uint64{2}, sm.SeatsByStatus(domain.SeatHeld))
}

func TestHoldUnknownSeat(t *testing.T) {
	sm := newShowMap(t, 1, 2)

	err := sm.Hold([]uint64{1, 99}, "tok", time.Now().Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrInvalidSeatSet)

	// Seat 1 was taken before the unknown seat was hit and must be rolled back.
	assert.Equal(t, 2, sm.FreeCount())
}

func TestBookAndReleaseTransitions(t *testing.T) {
	sm := newShowMap(t, 1, 2)
	exp := time.Now().Add(time.Minute)

	require.NoError(t, sm.Hold([]uint64{1, 2}, "tok", exp))
	require.NoError(t, sm.Book([]uint64{1}, "tok", map[uint64]string{1: "ticket-1"}))

	assert.Equal(t, []uint64{1}, sm.SeatsByStatus(domain.SeatBooked))

	// Booked seats never revert; Release only frees seats still held.
	sm.Release([]uint64{1, 2}, "tok")
	assert.Equal(t, []uint64{1}, sm.SeatsByStatus(domain.SeatBooked))
	assert.Equal(t, []uint64{2}, sm.SeatsByStatus(domain.SeatFree))
}

func TestBookRejectsForeignToken(t *testing.T) {
	sm := newShowMap(t, 1)
	require.NoError(t, sm.Hold([]uint64{1}, "owner", time.Now().Add(time.Minute)))

	err := sm.Book([]uint64{1}, "intruder", map[uint64]string{1: "t"})
	require.Error(t, err)
	assert.Equal(t, []uint64{1}, sm.SeatsByStatus(domain.SeatHeld))
}

func TestReleaseIsIdempotent(t *testing.T) {
	sm := newShowMap(t, 1)
	require.NoError(t, sm.Hold([]uint64{1}, "tok", time.Now().Add(time.Minute)))

	sm.Release([]uint64{1}, "tok")
	sm.Release([]uint64{1}, "tok")
	assert.Equal(t, 1, sm.FreeCount())
}

func TestConcurrentOverlappingHoldsAtMostOneWins(t *testing.T) {
	sm := newShowMap(t, 1, 2, 3, 4)
	exp := time.Now().Add(time.Minute)

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", i)
			// Every worker wants seat 2, so at most one batch can commit.
			if err := sm.Hold([]uint64{2, 3}, token, exp); err == nil {
				wins <- token
			} else if !errors.Is(err, domain.ErrSeatUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	assert.Equal(t, []uint64{2, 3}, sm.SeatsByStatus(domain.SeatHeld))
	assert.Equal(t, []uint64{1, 4}, sm.SeatsByStatus(domain.SeatFree))
}

func TestConcurrentDisjointHoldsAllSucceed(t *testing.T) {
	seatIDs := make([]uint64, 0, 64)
	for i := uint64(1); i <= 64; i++ {
		seatIDs = append(seatIDs, i)
	}
	sm := newShowMap(t, seatIDs...)
	exp := time.Now().Add(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			base := uint64(i * 4)
			batch := []uint64{base + 1, base + 2, base + 3, base + 4}
			if err := sm.Hold(batch, fmt.Sprintf("tok-%d", i), exp); err != nil {
				t.Errorf("disjoint hold failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, sm.FreeCount())
	assert.Len(t, sm.SeatsByStatus(domain.SeatHeld), 64)
}

func TestSnapshotDoesNotBlockWriters(t *testing.T) {
	sm := newShowMap(t, 1, 2, 3, 4, 5, 6, 7, 8)
	exp := time.Now().Add(time.Minute)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			token := fmt.Sprintf("tok-%d", i)
			if err := sm.Hold([]uint64{1, 2, 3}, token, exp); err == nil {
				sm.Release([]uint64{1, 2, 3}, token)
			}
		}
	}()

	// Snapshots taken while holds churn must always be internally sane:
	// every seat present, only valid statuses.
	for i := 0; i < 200; i++ {
		snap := sm.Snapshot()
		require.Len(t, snap, 8)
		for _, st := range snap {
			switch st.Status {
			case domain.SeatFree, domain.SeatHeld, domain.SeatBooked:
			default:
				t.Fatalf("invalid status %q", st.Status)
			}
		}
	}
	<-done
}
