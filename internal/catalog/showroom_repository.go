package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// ShowroomRepo manages persistence for showrooms and their seat layouts.
// A layout is written once, at showroom creation, and read by every show
// scheduled in the room afterwards.
type ShowroomRepo struct {
	db *sql.DB
}

// NewShowroomRepo constructs a ShowroomRepo with the given DB handle.
func NewShowroomRepo(db *sql.DB) *ShowroomRepo {
	return &ShowroomRepo{db: db}
}

// Create inserts a showroom together with its full seat layout in one
// transaction, so a room can never exist half-laid-out. Seat IDs are
// populated on the passed slice.
func (r *ShowroomRepo) Create(ctx context.Context, room *domain.Showroom, seats []domain.Seat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qRoom = `INSERT INTO showrooms (name, seat_rows, seat_cols) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, qRoom, room.Name, room.SeatRows, room.SeatCols)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)

	for i := range seats {
		seats[i].ShowroomID = room.ID
		const qSeat = `INSERT INTO seats (showroom_id, row_label, seat_number, ticket_type_id) VALUES (?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, qSeat, seats[i].ShowroomID, seats[i].RowLabel, seats[i].SeatNumber, seats[i].TicketTypeID)
		if err != nil {
			return err
		}
		sid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		seats[i].ID = uint64(sid)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a showroom by ID. It returns ErrShowroomNotFound when
// no row matches.
func (r *ShowroomRepo) GetByID(ctx context.Context, id uint64) (*domain.Showroom, error) {
	const q = `SELECT id, name, seat_rows, seat_cols, created_at FROM showrooms WHERE id = ?`
	var room domain.Showroom
	err := r.db.QueryRowContext(ctx, q, id).Scan(&room.ID, &room.Name, &room.SeatRows, &room.SeatCols, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShowroomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// List returns all showrooms ordered by name.
func (r *ShowroomRepo) List(ctx context.Context) ([]domain.Showroom, error) {
	const q = `SELECT id, name, seat_rows, seat_cols, created_at FROM showrooms ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Showroom
	for rows.Next() {
		var room domain.Showroom
		if err := rows.Scan(&room.ID, &room.Name, &room.SeatRows, &room.SeatCols, &room.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// Seats retrieves the full layout of a showroom ordered by row label and
// seat number.
func (r *ShowroomRepo) Seats(ctx context.Context, showroomID uint64) ([]domain.Seat, error) {
	const q = `SELECT id, showroom_id, row_label, seat_number, ticket_type_id
	           FROM seats
	           WHERE showroom_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, showroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.ShowroomID, &s.RowLabel, &s.SeatNumber, &s.TicketTypeID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
