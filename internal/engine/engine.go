// Package engine implements the seat-reservation lifecycle: hold, confirm,
// release and expiry. It owns the in-memory seat map and the reservation
// registry and writes every transition through the durable Store. All
// mutation of seat state goes through this package; nothing else touches
// the seat map directly.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/pricing"
	"github.com/kinohall/seat-reservation/internal/seatmap"
)

// MinHoldTTL is the floor applied to requested hold TTLs. Anything shorter
// would expire before the client could realistically confirm.
const MinHoldTTL = 10 * time.Second

// Config carries the engine's tunables. Now may be left nil to use the wall
// clock; tests inject a fake clock to drive expiry without sleeping.
type Config struct {
	DefaultHoldTTL time.Duration
	MaxHoldTTL     time.Duration
	Now            func() time.Time
}

// showEntry bundles everything the engine needs about one show: the catalog
// record, the seat-to-category mapping for pricing, and the live seat map.
type showEntry struct {
	show      domain.Show
	seatTypes map[uint64]uint64            // seat ID -> ticket type ID
	types     map[uint64]domain.TicketType // ticket type ID -> type
	sm        *seatmap.ShowMap
}

// tracked wraps a reservation with its own mutex. Confirm, release and
// expiry for one token serialize on this lock, which is what makes a
// sweeper pass safe to race against a confirm: whichever commits first
// flips the status and the loser sees a terminal reservation and skips.
type tracked struct {
	mu  sync.Mutex
	res domain.Reservation
}

// Engine orchestrates reservations across all registered shows.
type Engine struct {
	store Store
	seats *seatmap.Map

	mu           sync.RWMutex
	shows        map[uint64]*showEntry
	reservations map[string]*tracked

	now        func() time.Time
	defaultTTL time.Duration
	maxTTL     time.Duration
}

// New constructs an Engine writing through the given store.
func New(store Store, cfg Config) *Engine {
	if cfg.DefaultHoldTTL <= 0 {
		cfg.DefaultHoldTTL = 5 * time.Minute
	}
	if cfg.MaxHoldTTL <= 0 {
		cfg.MaxHoldTTL = 10 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:        store,
		seats:        seatmap.New(),
		shows:        make(map[uint64]*showEntry),
		reservations: make(map[string]*tracked),
		now:          now,
		defaultTTL:   cfg.DefaultHoldTTL,
		maxTTL:       cfg.MaxHoldTTL,
	}
}

// randomToken returns n cryptographically random bytes hex-encoded. Holder
// tokens are opaque; 2n hex characters is the full client-visible surface.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// AddShow registers a newly scheduled show: every layout seat starts Free,
// both in memory and as durable seat-state rows. The seats slice must be
// the showroom's full layout and types must cover every ticket type the
// layout references.
func (e *Engine) AddShow(ctx context.Context, show domain.Show, seats []domain.Seat, types []domain.TicketType) error {
	seatIDs := make([]uint64, 0, len(seats))
	seatTypes := make(map[uint64]uint64, len(seats))
	for _, s := range seats {
		seatIDs = append(seatIDs, s.ID)
		seatTypes[s.ID] = s.TicketTypeID
	}
	typeMap := make(map[uint64]domain.TicketType, len(types))
	for _, tt := range types {
		typeMap[tt.ID] = tt
	}
	for seatID, ttID := range seatTypes {
		if _, ok := typeMap[ttID]; !ok {
			return fmt.Errorf("seat %d references unknown ticket type %d: %w", seatID, ttID, domain.ErrTicketTypeNotFound)
		}
	}

	if err := e.store.InitSeatStates(ctx, show.ID, seatIDs); err != nil {
		return fmt.Errorf("init seat states: %w", err)
	}
	sm := e.seats.Register(show.ID, seatIDs)

	e.mu.Lock()
	e.shows[show.ID] = &showEntry{show: show, seatTypes: seatTypes, types: typeMap, sm: sm}
	e.mu.Unlock()
	return nil
}

// RestoreShow rebuilds a show's in-memory state from durable rows at
// startup. No store writes happen; states and reservations come straight
// from the store's Load methods.
func (e *Engine) RestoreShow(show domain.Show, seats []domain.Seat, types []domain.TicketType, states []domain.SeatState, reservations []domain.Reservation) {
	seatTypes := make(map[uint64]uint64, len(seats))
	for _, s := range seats {
		seatTypes[s.ID] = s.TicketTypeID
	}
	typeMap := make(map[uint64]domain.TicketType, len(types))
	for _, tt := range types {
		typeMap[tt.ID] = tt
	}
	sm := e.seats.RegisterStates(show.ID, states)

	e.mu.Lock()
	e.shows[show.ID] = &showEntry{show: show, seatTypes: seatTypes, types: typeMap, sm: sm}
	for i := range reservations {
		res := reservations[i]
		e.reservations[res.HolderToken] = &tracked{res: res}
	}
	e.mu.Unlock()
}

// entry returns the registered show entry or ErrShowNotFound.
func (e *Engine) entry(showID uint64) (*showEntry, error) {
	e.mu.RLock()
	ent, ok := e.shows[showID]
	e.mu.RUnlock()
	if !ok {
		return nil, domain.ErrShowNotFound
	}
	return ent, nil
}

// showSnapshot copies the catalog record under the registry lock. SetBasePrice
// mutates it, so readers must not touch ent.show directly.
func (e *Engine) showSnapshot(ent *showEntry) domain.Show {
	e.mu.RLock()
	s := ent.show
	e.mu.RUnlock()
	return s
}

// clampTTL normalizes a requested hold TTL into [MinHoldTTL, maxTTL],
// substituting the default when the caller passed zero.
func (e *Engine) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = e.defaultTTL
	}
	if ttl < MinHoldTTL {
		ttl = MinHoldTTL
	}
	if ttl > e.maxTTL {
		ttl = e.maxTTL
	}
	return ttl
}

// Hold attempts to claim every requested seat of a show under one fresh
// holder token. The transition is all-or-nothing: if any seat is not Free
// the call fails with ErrSeatUnavailable and no seat changes state. An
// empty, zero-only or out-of-layout seat set fails with ErrInvalidSeatSet
// before any state is touched. Only scheduled shows accept holds.
func (e *Engine) Hold(ctx context.Context, showID uint64, seatIDs []uint64, ttl time.Duration) (domain.Reservation, error) {
	ent, err := e.entry(showID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if s := e.showSnapshot(ent); s.Status != domain.ShowScheduled {
		return domain.Reservation{}, domain.ErrShowNotFound
	}

	// Deduplicate; a request naming the same seat twice is one claim.
	unique := make([]uint64, 0, len(seatIDs))
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return domain.Reservation{}, fmt.Errorf("empty seat set: %w", domain.ErrInvalidSeatSet)
	}
	if bad, ok := ent.sm.Contains(unique); !ok {
		return domain.Reservation{}, fmt.Errorf("seat %d not in show layout: %w", bad, domain.ErrInvalidSeatSet)
	}

	// Reclaim overdue holds on this show first, so a seat whose hold just
	// lapsed is immediately re-holdable without waiting for the sweeper.
	e.expireShowDue(ctx, showID)

	token, err := randomToken(32)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("generate holder token: %w", err)
	}
	now := e.now()
	expiresAt := now.Add(e.clampTTL(ttl))

	if err := ent.sm.Hold(unique, token, expiresAt); err != nil {
		return domain.Reservation{}, err
	}

	res := domain.Reservation{
		HolderToken: token,
		ShowID:      showID,
		SeatIDs:     unique,
		Status:      domain.ReservationHolding,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if err := e.store.SaveHold(ctx, &res); err != nil {
		// Durable write failed: undo the in-memory transition so no seat
		// stays Held without a live reservation record.
		ent.sm.Release(unique, token)
		return domain.Reservation{}, fmt.Errorf("persist hold: %w", err)
	}

	e.mu.Lock()
	e.reservations[token] = &tracked{res: res}
	e.mu.Unlock()
	return res, nil
}

// lookup returns the tracked reservation for a token.
func (e *Engine) lookup(token string) (*tracked, error) {
	e.mu.RLock()
	tr, ok := e.reservations[token]
	e.mu.RUnlock()
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return tr, nil
}

// Confirm converts a hold into booked seats and issues one ticket per seat,
// priced at the show's current base price plus the seat category premium.
// Confirm is idempotent: repeating it with an already-confirmed token
// returns the identical ticket set with issued=false, so callers can tell
// a repeat from the initial transition. A lapsed hold fails with
// ErrReservationExpired and its seats revert to Free immediately; a hold
// on a show cancelled in the meantime fails with ErrShowNotFound.
func (e *Engine) Confirm(ctx context.Context, token string) (tickets []domain.Ticket, issued bool, err error) {
	tr, err := e.lookup(token)
	if err != nil {
		return nil, false, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	switch tr.res.Status {
	case domain.ReservationConfirmed:
		out := make([]domain.Ticket, len(tr.res.Tickets))
		copy(out, tr.res.Tickets)
		return out, false, nil
	case domain.ReservationExpired:
		return nil, false, domain.ErrReservationExpired
	case domain.ReservationReleased:
		return nil, false, domain.ErrReservationNotFound
	}

	ent, err := e.entry(tr.res.ShowID)
	if err != nil {
		return nil, false, err
	}

	if !e.now().Before(tr.res.ExpiresAt) {
		e.expireLocked(ctx, ent, tr)
		return nil, false, domain.ErrReservationExpired
	}

	// Re-check the show here: a hold taken before cancellation must not
	// book seats on a cancelled show. The hold stays until its TTL lapses.
	show := e.showSnapshot(ent)
	if show.Status != domain.ShowScheduled {
		return nil, false, domain.ErrShowNotFound
	}

	// Price each seat exactly once, here, so the ticket locks in the base
	// price in effect at booking time.
	tickets = make([]domain.Ticket, 0, len(tr.res.SeatIDs))
	ticketIDs := make(map[uint64]string, len(tr.res.SeatIDs))
	for _, seatID := range tr.res.SeatIDs {
		ttID := ent.seatTypes[seatID]
		tt, ok := ent.types[ttID]
		if !ok {
			return nil, false, fmt.Errorf("seat %d: %w", seatID, domain.ErrTicketTypeNotFound)
		}
		id := uuid.NewString()
		ticketIDs[seatID] = id
		tickets = append(tickets, domain.Ticket{
			ID:           id,
			ShowID:       tr.res.ShowID,
			SeatID:       seatID,
			TicketTypeID: ttID,
			PriceCents:   pricing.ForSeat(&show, &tt),
			HolderToken:  token,
		})
	}

	resCopy := tr.res
	resCopy.Status = domain.ReservationConfirmed
	if err := e.store.SaveConfirm(ctx, &resCopy, tickets); err != nil {
		// Reservation stays Holding; the caller may retry while the TTL lasts.
		return nil, false, fmt.Errorf("persist confirm: %w", err)
	}

	if err := ent.sm.Book(tr.res.SeatIDs, token, ticketIDs); err != nil {
		return nil, false, err
	}
	tr.res.Status = domain.ReservationConfirmed
	tr.res.Tickets = tickets

	out := make([]domain.Ticket, len(tickets))
	copy(out, tickets)
	return out, true, nil
}

// Release cancels a hold early, freeing its seats. Terminal reservations
// (confirmed, released or already expired) fail with ErrReservationNotFound;
// a hold whose TTL already lapsed is expired on the spot and reported the
// same way.
func (e *Engine) Release(ctx context.Context, token string) error {
	tr, err := e.lookup(token)
	if err != nil {
		return err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.res.Terminal() {
		return domain.ErrReservationNotFound
	}
	ent, err := e.entry(tr.res.ShowID)
	if err != nil {
		return err
	}
	if !e.now().Before(tr.res.ExpiresAt) {
		e.expireLocked(ctx, ent, tr)
		return domain.ErrReservationNotFound
	}

	resCopy := tr.res
	resCopy.Status = domain.ReservationReleased
	if err := e.store.SaveRelease(ctx, &resCopy); err != nil {
		return fmt.Errorf("persist release: %w", err)
	}
	ent.sm.Release(tr.res.SeatIDs, token)
	tr.res.Status = domain.ReservationReleased
	return nil
}

// Reservation returns a copy of the reservation for a token, for lookups
// and ticket retrieval after confirmation.
func (e *Engine) Reservation(token string) (domain.Reservation, error) {
	tr, err := e.lookup(token)
	if err != nil {
		return domain.Reservation{}, err
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	res := tr.res
	res.SeatIDs = append([]uint64(nil), tr.res.SeatIDs...)
	res.Tickets = append([]domain.Ticket(nil), tr.res.Tickets...)
	return res, nil
}

// ExpireDue reclaims every hold whose TTL has lapsed and returns how many
// reservations it expired. It is idempotent and safe to run concurrently
// with itself and with Confirm/Release: each reservation's lock serializes
// the race, and a reservation that went terminal first is skipped.
func (e *Engine) ExpireDue(ctx context.Context) int {
	now := e.now()

	e.mu.RLock()
	due := make([]*tracked, 0)
	for _, tr := range e.reservations {
		due = append(due, tr)
	}
	e.mu.RUnlock()

	n := 0
	for _, tr := range due {
		tr.mu.Lock()
		if tr.res.Status == domain.ReservationHolding && !now.Before(tr.res.ExpiresAt) {
			if ent, err := e.entry(tr.res.ShowID); err == nil {
				e.expireLocked(ctx, ent, tr)
				n++
			}
		}
		tr.mu.Unlock()
	}
	return n
}

// expireShowDue reclaims overdue holds for a single show. Called inline
// from Hold so availability reflects lapsed holds without waiting for the
// next sweeper tick.
func (e *Engine) expireShowDue(ctx context.Context, showID uint64) {
	now := e.now()

	e.mu.RLock()
	var due []*tracked
	for _, tr := range e.reservations {
		if tr.res.ShowID == showID {
			due = append(due, tr)
		}
	}
	e.mu.RUnlock()

	for _, tr := range due {
		tr.mu.Lock()
		if tr.res.Status == domain.ReservationHolding && !now.Before(tr.res.ExpiresAt) {
			if ent, err := e.entry(showID); err == nil {
				e.expireLocked(ctx, ent, tr)
			}
		}
		tr.mu.Unlock()
	}
}

// expireLocked transitions a Holding reservation to Expired and frees its
// seats. The caller must hold tr.mu. The in-memory state flips first and
// the durable write follows; if the write fails the durable rows still say
// HELD/HOLDING and rehydration plus the next sweep converge them.
func (e *Engine) expireLocked(ctx context.Context, ent *showEntry, tr *tracked) {
	ent.sm.Release(tr.res.SeatIDs, tr.res.HolderToken)
	tr.res.Status = domain.ReservationExpired

	resCopy := tr.res
	if err := e.store.SaveExpiry(ctx, &resCopy); err != nil {
		log.Printf("engine: persist expiry for token %s: %v", tr.res.HolderToken, err)
	}
}
