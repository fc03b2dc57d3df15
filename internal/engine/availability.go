package engine

import (
	"sort"
	"time"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// Availability is the read-side view of one show's seat map: a snapshot of
// every seat's status plus counts per status. Held seats count as
// unavailable even though they may revert to Free when their hold lapses.
type Availability struct {
	ShowID uint64                    `json:"show_id"`
	Counts map[domain.SeatStatus]int `json:"counts"`
	Seats  []domain.SeatState        `json:"seats"`
}

// BookableCriteria filters ListBookableShows. Zero values mean "no filter".
type BookableCriteria struct {
	MovieID uint64
	From    time.Time
	To      time.Time
}

// SeatAvailability returns a consistent snapshot of a show's seat states.
// The snapshot is built from atomic loads and never blocks an in-flight
// hold; it may trail a concurrent transition by an instant, but a booked
// seat is never reported Free.
func (e *Engine) SeatAvailability(showID uint64) (Availability, error) {
	ent, err := e.entry(showID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		ShowID: showID,
		Counts: ent.sm.Counts(),
		Seats:  ent.sm.Snapshot(),
	}, nil
}

// ListBookableShows returns shows that can still be booked: scheduled,
// starting in the future and with at least one Free seat, narrowed by the
// given criteria and sorted by start time.
func (e *Engine) ListBookableShows(criteria BookableCriteria) []domain.Show {
	now := e.now()

	type candidate struct {
		show domain.Show
		free int
	}
	e.mu.RLock()
	entries := make([]candidate, 0, len(e.shows))
	for _, ent := range e.shows {
		entries = append(entries, candidate{show: ent.show, free: ent.sm.FreeCount()})
	}
	e.mu.RUnlock()

	out := make([]domain.Show, 0, len(entries))
	for _, ent := range entries {
		s := ent.show
		if s.Status != domain.ShowScheduled || !s.StartsAt.After(now) {
			continue
		}
		if criteria.MovieID != 0 && s.MovieID != criteria.MovieID {
			continue
		}
		if !criteria.From.IsZero() && s.StartsAt.Before(criteria.From) {
			continue
		}
		if !criteria.To.IsZero() && !s.StartsAt.Before(criteria.To) {
			continue
		}
		if ent.free == 0 {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// HasBookedSeats reports whether any seat of the show has been booked.
// Shows with booked seats are immutable: their schedule and base price can
// no longer change, since issued tickets locked in the old price.
func (e *Engine) HasBookedSeats(showID uint64) (bool, error) {
	ent, err := e.entry(showID)
	if err != nil {
		return false, err
	}
	return ent.sm.Counts()[domain.SeatBooked] > 0, nil
}

// CancelShow marks a show cancelled so it stops appearing bookable and
// rejects new holds. A show with booked seats cannot be cancelled; issued
// tickets keep it immutable. Outstanding holds simply lapse via their TTL.
func (e *Engine) CancelShow(showID uint64) error {
	booked, err := e.HasBookedSeats(showID)
	if err != nil {
		return err
	}
	if booked {
		return domain.ErrShowImmutable
	}
	e.mu.Lock()
	if ent, ok := e.shows[showID]; ok {
		ent.show.Status = domain.ShowCancelled
	}
	e.mu.Unlock()
	return nil
}

// SetBasePrice updates the in-memory base price used for pricing future
// confirmations. It fails with ErrShowImmutable once any seat is booked.
// The caller persists the catalog row alongside.
func (e *Engine) SetBasePrice(showID uint64, cents uint32) error {
	booked, err := e.HasBookedSeats(showID)
	if err != nil {
		return err
	}
	if booked {
		return domain.ErrShowImmutable
	}
	e.mu.Lock()
	if ent, ok := e.shows[showID]; ok {
		ent.show.BasePriceCents = cents
	}
	e.mu.Unlock()
	return nil
}
