package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kinohall/seat-reservation/internal/domain"
)

func TestShowOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	show := domain.Show{StartsAt: base, EndsAt: base.Add(2 * time.Hour)}

	assert.True(t, show.Overlaps(base.Add(time.Hour), base.Add(3*time.Hour)), "partial overlap at tail")
	assert.True(t, show.Overlaps(base.Add(-time.Hour), base.Add(time.Hour)), "partial overlap at head")
	assert.True(t, show.Overlaps(base.Add(-time.Hour), base.Add(3*time.Hour)), "containing range")
	assert.True(t, show.Overlaps(base.Add(30*time.Minute), base.Add(time.Hour)), "contained range")

	// Back-to-back shows share an instant but do not conflict.
	assert.False(t, show.Overlaps(base.Add(2*time.Hour), base.Add(4*time.Hour)))
	assert.False(t, show.Overlaps(base.Add(-2*time.Hour), base))
}

func TestReservationTerminal(t *testing.T) {
	r := domain.Reservation{Status: domain.ReservationHolding}
	assert.False(t, r.Terminal())
	for _, st := range []domain.ReservationStatus{
		domain.ReservationConfirmed, domain.ReservationReleased, domain.ReservationExpired,
	} {
		r.Status = st
		assert.True(t, r.Terminal(), string(st))
	}
}
