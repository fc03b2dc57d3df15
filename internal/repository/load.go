package repository

import (
	"context"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// LoadSeatStates reads every seat-state row of a show, used to rehydrate
// the in-memory seat map after a restart.
func (s *BookingStore) LoadSeatStates(ctx context.Context, showID uint64) ([]domain.SeatState, error) {
	const q = `SELECT seat_id, status, COALESCE(holder_token, ''), COALESCE(expires_at, '1970-01-01'), COALESCE(ticket_id, '')
	           FROM seat_states WHERE show_id = ?`
	rows, err := s.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, wrap("load seat states", err)
	}
	defer rows.Close()

	var out []domain.SeatState
	for rows.Next() {
		var st domain.SeatState
		if err := rows.Scan(&st.SeatID, &st.Status, &st.HolderToken, &st.ExpiresAt, &st.TicketID); err != nil {
			return nil, wrap("scan seat state", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load seat states", err)
	}
	return out, nil
}

// LoadLiveReservations reads the reservations of a show that still matter
// after a restart: Holding ones (the sweeper may yet expire them) and
// Confirmed ones (so confirm retries stay idempotent). Seat lists and
// tickets are attached.
func (s *BookingStore) LoadLiveReservations(ctx context.Context, showID uint64) ([]domain.Reservation, error) {
	const q = `SELECT holder_token, show_id, status, created_at, expires_at
	           FROM reservations
	           WHERE show_id = ? AND status IN ('HOLDING', 'CONFIRMED')`
	rows, err := s.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, wrap("load reservations", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.HolderToken, &res.ShowID, &res.Status, &res.CreatedAt, &res.ExpiresAt); err != nil {
			return nil, wrap("scan reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load reservations", err)
	}

	for i := range out {
		seats, err := s.loadReservationSeats(ctx, out[i].HolderToken)
		if err != nil {
			return nil, err
		}
		out[i].SeatIDs = seats
		if out[i].Status == domain.ReservationConfirmed {
			tickets, err := s.LoadTickets(ctx, out[i].HolderToken)
			if err != nil {
				return nil, err
			}
			out[i].Tickets = tickets
		}
	}
	return out, nil
}

func (s *BookingStore) loadReservationSeats(ctx context.Context, token string) ([]uint64, error) {
	const q = `SELECT seat_id FROM reservation_seats WHERE holder_token = ? ORDER BY seat_id`
	rows, err := s.db.QueryContext(ctx, q, token)
	if err != nil {
		return nil, wrap("load reservation seats", err)
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan reservation seat", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load reservation seats", err)
	}
	return out, nil
}

// LoadTickets reads the tickets issued under a holder token, ordered by
// seat for stable responses.
func (s *BookingStore) LoadTickets(ctx context.Context, token string) ([]domain.Ticket, error) {
	const q = `SELECT id, show_id, seat_id, ticket_type_id, price_cents, holder_token
	           FROM tickets WHERE holder_token = ? ORDER BY seat_id`
	rows, err := s.db.QueryContext(ctx, q, token)
	if err != nil {
		return nil, wrap("load tickets", err)
	}
	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var tk domain.Ticket
		if err := rows.Scan(&tk.ID, &tk.ShowID, &tk.SeatID, &tk.TicketTypeID, &tk.PriceCents, &tk.HolderToken); err != nil {
			return nil, wrap("scan ticket", err)
		}
		out = append(out, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("load tickets", err)
	}
	return out, nil
}
