package engine

import (
	"context"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// Store is the durability port the engine writes through. Every lifecycle
// transition persists the reservation row and its seat-state rows together
// in one transaction, so a Held seat can never outlive its reservation
// record in the durable store. Implementations map infrastructure failures
// to domain.ErrStoreUnavailable so callers know the operation is retryable.
type Store interface {
	// InitSeatStates creates one Free seat-state row per seat when a show
	// is scheduled.
	InitSeatStates(ctx context.Context, showID uint64, seatIDs []uint64) error

	// SaveHold inserts the Holding reservation and flips its seats to HELD.
	SaveHold(ctx context.Context, res *domain.Reservation) error

	// SaveConfirm marks the reservation Confirmed, flips its seats to
	// BOOKED and appends the issued tickets.
	SaveConfirm(ctx context.Context, res *domain.Reservation, tickets []domain.Ticket) error

	// SaveRelease marks the reservation Released and frees its seats.
	SaveRelease(ctx context.Context, res *domain.Reservation) error

	// SaveExpiry marks the reservation Expired and frees its seats.
	SaveExpiry(ctx context.Context, res *domain.Reservation) error
}
