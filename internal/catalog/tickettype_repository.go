package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// TicketTypeRepo manages persistence for ticket types (seat categories).
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
	return &TicketTypeRepo{db: db}
}

// Create inserts a ticket type and populates its generated ID.
func (r *TicketTypeRepo) Create(ctx context.Context, tt *domain.TicketType) error {
	const q = `INSERT INTO ticket_types (name, premium_percent) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, tt.Name, tt.PremiumPercent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tt.ID = uint64(id)
	return nil
}

// GetByID retrieves a ticket type by ID. It returns ErrTicketTypeNotFound
// when no row matches.
func (r *TicketTypeRepo) GetByID(ctx context.Context, id uint64) (*domain.TicketType, error) {
	const q = `SELECT id, name, premium_percent FROM ticket_types WHERE id = ?`
	var tt domain.TicketType
	err := r.db.QueryRowContext(ctx, q, id).Scan(&tt.ID, &tt.Name, &tt.PremiumPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// List returns all ticket types ordered by name.
func (r *TicketTypeRepo) List(ctx context.Context) ([]domain.TicketType, error) {
	const q = `SELECT id, name, premium_percent FROM ticket_types ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TicketType
	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.ID, &tt.Name, &tt.PremiumPercent); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}
