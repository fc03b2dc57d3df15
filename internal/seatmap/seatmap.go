// Package seatmap holds the authoritative in-memory view of per-show seat
// state. Each seat's state lives behind an atomic pointer: snapshot reads
// are plain loads that never block writers, and multi-seat holds are applied
// as an ordered sequence of compare-and-swap transitions with rollback, so
// disjoint holds proceed independently and overlapping holds resolve with
// exactly one winner. There is no global lock on the hot path.
package seatmap

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// slot wraps one seat's state. The pointed-to SeatState is immutable once
// published; transitions swap in a fresh value.
type slot struct {
	state atomic.Pointer[domain.SeatState]
}

// ShowMap is the seat grid of a single show. The seat set is fixed at
// construction (it mirrors the showroom's layout) and only the per-seat
// states mutate afterwards.
type ShowMap struct {
	showID uint64
	seats  map[uint64]*slot
}

// Map is a registry of ShowMaps keyed by show ID. The registry lock guards
// only registration and lookup, never seat-state transitions.
type Map struct {
	mu    sync.RWMutex
	shows map[uint64]*ShowMap
}

// New returns an empty seat map registry.
func New() *Map {
	return &Map{shows: make(map[uint64]*ShowMap)}
}

// Register creates the ShowMap for a newly scheduled show with every seat
// initialized Free. It replaces any previous entry for the same show ID.
func (m *Map) Register(showID uint64, seatIDs []uint64) *ShowMap {
	sm := &ShowMap{showID: showID, seats: make(map[uint64]*slot, len(seatIDs))}
	for _, id := range seatIDs {
		s := &slot{}
		s.state.Store(&domain.SeatState{SeatID: id, Status: domain.SeatFree})
		sm.seats[id] = s
	}
	m.mu.Lock()
	m.shows[showID] = sm
	m.mu.Unlock()
	return sm
}

// RegisterStates rebuilds the ShowMap for a show from durable seat-state
// rows, used when the engine rehydrates after a restart.
func (m *Map) RegisterStates(showID uint64, states []domain.SeatState) *ShowMap {
	sm := &ShowMap{showID: showID, seats: make(map[uint64]*slot, len(states))}
	for i := range states {
		st := states[i]
		s := &slot{}
		s.state.Store(&st)
		sm.seats[st.SeatID] = s
	}
	m.mu.Lock()
	m.shows[showID] = sm
	m.mu.Unlock()
	return sm
}

// Get returns the ShowMap for a show, or false when the show is unknown.
func (m *Map) Get(showID uint64) (*ShowMap, bool) {
	m.mu.RLock()
	sm, ok := m.shows[showID]
	m.mu.RUnlock()
	return sm, ok
}

// Contains reports whether every given seat ID exists in the show's layout.
// It returns the first unknown seat ID when the check fails.
func (s *ShowMap) Contains(seatIDs []uint64) (uint64, bool) {
	for _, id := range seatIDs {
		if _, ok := s.seats[id]; !ok {
			return id, false
		}
	}
	return 0, true
}

// Snapshot returns a point-in-time copy of every seat's state. Each entry is
// an independent atomic load, so the result is at-least-as-fresh-as the last
// committed transition and taking it never blocks a concurrent hold.
func (s *ShowMap) Snapshot() []domain.SeatState {
	out := make([]domain.SeatState, 0, len(s.seats))
	for _, sl := range s.seats {
		out = append(out, *sl.state.Load())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out
}

// SeatsByStatus returns the IDs of seats currently in the given status,
// sorted ascending.
func (s *ShowMap) SeatsByStatus(status domain.SeatStatus) []uint64 {
	var out []uint64
	for id, sl := range s.seats {
		if sl.state.Load().Status == status {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Counts tallies seats per status in one snapshot pass.
func (s *ShowMap) Counts() map[domain.SeatStatus]int {
	counts := map[domain.SeatStatus]int{
		domain.SeatFree:   0,
		domain.SeatHeld:   0,
		domain.SeatBooked: 0,
	}
	for _, sl := range s.seats {
		counts[sl.state.Load().Status]++
	}
	return counts
}

// FreeCount returns the number of seats currently Free.
func (s *ShowMap) FreeCount() int {
	n := 0
	for _, sl := range s.seats {
		if sl.state.Load().Status == domain.SeatFree {
			n++
		}
	}
	return n
}

// Hold attempts to transition every requested seat Free->Held under the
// given holder token. Seats are taken in ascending ID order; if any seat is
// not Free the seats already taken are rolled back and ErrSeatUnavailable is
// returned, so the operation is all-or-nothing. When two holds race for an
// overlapping seat set, the compare-and-swap that commits first wins and the
// loser's whole batch fails.
func (s *ShowMap) Hold(seatIDs []uint64, token string, expiresAt time.Time) error {
	ordered := make([]uint64, len(seatIDs))
	copy(ordered, seatIDs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	taken := make([]uint64, 0, len(ordered))
	for _, id := range ordered {
		sl, ok := s.seats[id]
		if !ok {
			s.rollback(taken, token)
			return fmt.Errorf("seat %d: %w", id, domain.ErrInvalidSeatSet)
		}
		cur := sl.state.Load()
		if cur.Status != domain.SeatFree {
			s.rollback(taken, token)
			return fmt.Errorf("seat %d: %w", id, domain.ErrSeatUnavailable)
		}
		next := &domain.SeatState{
			SeatID:      id,
			Status:      domain.SeatHeld,
			HolderToken: token,
			ExpiresAt:   expiresAt,
		}
		if !sl.state.CompareAndSwap(cur, next) {
			// Lost the race for this seat; whoever won owns it now.
			s.rollback(taken, token)
			return fmt.Errorf("seat %d: %w", id, domain.ErrSeatUnavailable)
		}
		taken = append(taken, id)
	}
	return nil
}

// rollback reverts seats taken by a failed hold back to Free. Only seats
// still held under the failing token are touched.
func (s *ShowMap) rollback(seatIDs []uint64, token string) {
	for _, id := range seatIDs {
		sl := s.seats[id]
		cur := sl.state.Load()
		if cur.Status == domain.SeatHeld && cur.HolderToken == token {
			sl.state.CompareAndSwap(cur, &domain.SeatState{SeatID: id, Status: domain.SeatFree})
		}
	}
}

// Book transitions seats held under token to Booked, recording the ticket ID
// issued for each seat. The caller serializes Book/Release per reservation,
// so a held seat cannot be mutated concurrently by anyone else; a mismatched
// holder is reported as an error rather than overwritten.
func (s *ShowMap) Book(seatIDs []uint64, token string, ticketIDs map[uint64]string) error {
	for _, id := range seatIDs {
		sl, ok := s.seats[id]
		if !ok {
			return fmt.Errorf("seat %d: %w", id, domain.ErrInvalidSeatSet)
		}
		cur := sl.state.Load()
		if cur.Status != domain.SeatHeld || cur.HolderToken != token {
			return fmt.Errorf("seat %d not held by token: %w", id, domain.ErrSeatUnavailable)
		}
		sl.state.Store(&domain.SeatState{
			SeatID:   id,
			Status:   domain.SeatBooked,
			TicketID: ticketIDs[id],
		})
	}
	return nil
}

// Release transitions seats held under token back to Free. Seats no longer
// held by that token are skipped, which makes the operation idempotent and
// safe to race with the expiry sweeper.
func (s *ShowMap) Release(seatIDs []uint64, token string) {
	for _, id := range seatIDs {
		sl, ok := s.seats[id]
		if !ok {
			continue
		}
		cur := sl.state.Load()
		if cur.Status == domain.SeatHeld && cur.HolderToken == token {
			sl.state.CompareAndSwap(cur, &domain.SeatState{SeatID: id, Status: domain.SeatFree})
		}
	}
}
