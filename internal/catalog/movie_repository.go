// Package catalog provides data access for the catalog entities: movies,
// showrooms and their seat layouts, ticket types and shows. Catalog data is
// read-mostly; it is written only by administrative operations and consumed
// read-only by the reservation engine.
package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a movie and populates its generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *domain.Movie) error {
	const q = `INSERT INTO movies (title, duration_min) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.DurationMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID retrieves a movie by ID. It returns ErrMovieNotFound when no row
// matches.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*domain.Movie, error) {
	const q = `SELECT id, title, duration_min FROM movies WHERE id = ?`
	var m domain.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.DurationMin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]domain.Movie, error) {
	const q = `SELECT id, title, duration_min FROM movies ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Movie
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.DurationMin); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
