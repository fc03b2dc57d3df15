package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// ShowRepo manages persistence for shows. Scheduling checks the no-overlap
// invariant against existing shows in the same showroom; two shows conflict
// when their [starts_at, ends_at) ranges intersect.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// Create inserts a show after verifying no overlapping show exists in the
// same showroom. Check and insert run in one transaction so two concurrent
// schedule attempts cannot both pass the overlap check. Returns
// ErrScheduleConflict on overlap.
func (r *ShowRepo) Create(ctx context.Context, s *domain.Show) error {
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

	// Half-open ranges: back-to-back shows (one ending when the next
	// starts) do not conflict. FOR UPDATE serializes racing schedulers of
	// the same room.
	const qOverlap = `SELECT id FROM shows
	                  WHERE showroom_id = ? AND status = 'SCHEDULED'
	                    AND starts_at < ? AND ? < ends_at
	                  LIMIT 1 FOR UPDATE`
	var conflictID uint64
	err = tx.QueryRowContext(ctx, qOverlap, s.ShowroomID, s.EndsAt.UTC(), s.StartsAt.UTC()).Scan(&conflictID)
	switch {
	case err == nil:
		return domain.ErrScheduleConflict
	case errors.Is(err, sql.ErrNoRows):
		// no conflict
	default:
		return err
	}

	const qInsert = `INSERT INTO shows (movie_id, showroom_id, starts_at, ends_at, base_price_cents, status)
	                 VALUES (?, ?, ?, ?, ?, 'SCHEDULED')`
	res, err := tx.ExecContext(ctx, qInsert, s.MovieID, s.ShowroomID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Status = domain.ShowScheduled

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a show by ID. It returns ErrShowNotFound when no row
// matches.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*domain.Show, error) {
	const q = `SELECT id, movie_id, showroom_id, starts_at, ends_at, base_price_cents, status
	           FROM shows WHERE id = ?`
	var s domain.Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.ShowroomID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all shows ordered by start time.
func (r *ShowRepo) List(ctx context.Context) ([]domain.Show, error) {
	const q = `SELECT id, movie_id, showroom_id, starts_at, ends_at, base_price_cents, status
	           FROM shows ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Show
	for rows.Next() {
		var s domain.Show
		if err := rows.Scan(&s.ID, &s.MovieID, &s.ShowroomID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindOverlapping returns scheduled shows in a showroom whose time range
// intersects [start, end). Used by admin tooling to explain a
// ScheduleConflict.
func (r *ShowRepo) FindOverlapping(ctx context.Context, showroomID uint64, start, end time.Time) ([]domain.Show, error) {
	const q = `SELECT id, movie_id, showroom_id, starts_at, ends_at, base_price_cents, status
	           FROM shows
	           WHERE showroom_id = ? AND status = 'SCHEDULED'
	             AND starts_at < ? AND ? < ends_at`
	rows, err := r.db.QueryContext(ctx, q, showroomID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Show
	for rows.Next() {
		var s domain.Show
		if err := rows.Scan(&s.ID, &s.MovieID, &s.ShowroomID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Cancel marks a scheduled show cancelled. Already cancelled or finished
// shows are left alone and reported as not found.
func (r *ShowRepo) Cancel(ctx context.Context, showID uint64) error {
	const q = `UPDATE shows SET status = 'CANCELLED' WHERE id = ? AND status = 'SCHEDULED'`
	res, err := r.db.ExecContext(ctx, q, showID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrShowNotFound
	}
	return nil
}

// UpdateBasePrice sets a show's base price. Callers must have verified the
// show has no booked seats; the durable row is updated unconditionally.
func (r *ShowRepo) UpdateBasePrice(ctx context.Context, showID uint64, cents uint32) error {
	const q = `UPDATE shows SET base_price_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, cents, showID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrShowNotFound
	}
	return nil
}
