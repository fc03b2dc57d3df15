// Package repository implements the engine's durable store on MySQL. Seat
// states, reservations and tickets are written together in one transaction
// per lifecycle transition, so the durable rows can never show a held seat
// without its reservation. Infrastructure failures are wrapped with
// domain.ErrStoreUnavailable to mark them retryable.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// BookingStore persists the mutable reservation-side state: per-(show, seat)
// state rows, reservations keyed by holder token, and append-only tickets.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore constructs a BookingStore with the given DB handle.
func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

// wrap marks an infrastructure failure as transient and retryable while
// keeping the original error text.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

// InitSeatStates creates one FREE seat-state row per seat of a newly
// scheduled show. Rows live for the lifetime of the show and are never
// deleted, so tickets stay resolvable afterwards.
func (s *BookingStore) InitSeatStates(ctx context.Context, showID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO seat_states (show_id, seat_id, status) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*2)
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, 'FREE')"
		args = append(args, showID, id)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrap("init seat states", err)
	}
	return nil
}

// SaveHold inserts the reservation with its seat list and flips the seats
// to HELD, all in one transaction.
func (s *BookingStore) SaveHold(ctx context.Context, res *domain.Reservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin hold tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qRes = `INSERT INTO reservations (holder_token, show_id, status, created_at, expires_at)
	              VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, qRes, res.HolderToken, res.ShowID, res.Status, res.CreatedAt.UTC(), res.ExpiresAt.UTC()); err != nil {
		return wrap("insert reservation", err)
	}

	for _, seatID := range res.SeatIDs {
		const qSeat = `INSERT INTO reservation_seats (holder_token, seat_id) VALUES (?, ?)`
		if _, err := tx.ExecContext(ctx, qSeat, res.HolderToken, seatID); err != nil {
			return wrap("insert reservation seat", err)
		}
	}
	if err := s.updateSeatStatesTx(ctx, tx, res.ShowID, res.SeatIDs,
		`status = 'HELD', holder_token = ?, expires_at = ?, ticket_id = NULL`,
		res.HolderToken, res.ExpiresAt.UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit hold", err)
	}
	committed = true
	return nil
}

// SaveConfirm marks the reservation confirmed, books its seats and appends
// the issued tickets, all in one transaction.
func (s *BookingStore) SaveConfirm(ctx context.Context, res *domain.Reservation, tickets []domain.Ticket) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin confirm tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qRes = `UPDATE reservations SET status = ? WHERE holder_token = ?`
	if _, err := tx.ExecContext(ctx, qRes, domain.ReservationConfirmed, res.HolderToken); err != nil {
		return wrap("update reservation", err)
	}

	for _, tk := range tickets {
		const qTicket = `INSERT INTO tickets (id, show_id, seat_id, ticket_type_id, price_cents, holder_token)
		                 VALUES (?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, qTicket, tk.ID, tk.ShowID, tk.SeatID, tk.TicketTypeID, tk.PriceCents, tk.HolderToken); err != nil {
			return wrap("insert ticket", err)
		}
		const qSeat = `UPDATE seat_states
		               SET status = 'BOOKED', holder_token = NULL, expires_at = NULL, ticket_id = ?
		               WHERE show_id = ? AND seat_id = ?`
		if _, err := tx.ExecContext(ctx, qSeat, tk.ID, tk.ShowID, tk.SeatID); err != nil {
			return wrap("book seat state", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit confirm", err)
	}
	committed = true
	return nil
}

// SaveRelease marks the reservation released and frees its seats.
func (s *BookingStore) SaveRelease(ctx context.Context, res *domain.Reservation) error {
	return s.finalize(ctx, res, domain.ReservationReleased)
}

// SaveExpiry marks the reservation expired and frees its seats.
func (s *BookingStore) SaveExpiry(ctx context.Context, res *domain.Reservation) error {
	return s.finalize(ctx, res, domain.ReservationExpired)
}

// finalize transitions a reservation into a freeing terminal state within
// one transaction.
func (s *BookingStore) finalize(ctx context.Context, res *domain.Reservation, status domain.ReservationStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin finalize tx", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qRes = `UPDATE reservations SET status = ? WHERE holder_token = ?`
	if _, err := tx.ExecContext(ctx, qRes, status, res.HolderToken); err != nil {
		return wrap("update reservation", err)
	}
	if err := s.updateSeatStatesTx(ctx, tx, res.ShowID, res.SeatIDs,
		`status = 'FREE', holder_token = NULL, expires_at = NULL, ticket_id = NULL`); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrap("commit finalize", err)
	}
	committed = true
	return nil
}

// updateSeatStatesTx applies one SET clause to a batch of seat-state rows.
func (s *BookingStore) updateSeatStatesTx(ctx context.Context, tx *sql.Tx, showID uint64, seatIDs []uint64, set string, setArgs ...interface{}) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seat_states SET ` + set + ` WHERE show_id = ? AND seat_id IN (`
	args := append([]interface{}{}, setArgs...)
	args = append(args, showID)
	for i, id := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return wrap("update seat states", err)
	}
	return nil
}
