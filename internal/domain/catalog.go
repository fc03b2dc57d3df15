package domain

import "time"

// Movie is a film that can be scheduled in a showroom. Catalog data only;
// the reservation engine never mutates movies.
type Movie struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	DurationMin uint32 `json:"duration_min"`
}

// Showroom is a physical room with a fixed seat layout. The layout is set
// once at creation and shared read-only by every show scheduled in the room.
type Showroom struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	SeatRows  uint32 `json:"seat_rows"`
	SeatCols  uint32 `json:"seat_cols"`
	CreatedAt time.Time `json:"created_at"`
}

// Seat is one position in a showroom's layout. RowLabel and SeatNumber
// identify the physical position; TicketTypeID selects the price category.
type Seat struct {
	ID           uint64 `json:"id"`
	ShowroomID   uint64 `json:"showroom_id"`
	RowLabel     string `json:"row_label"`
	SeatNumber   uint32 `json:"seat_number"`
	TicketTypeID uint64 `json:"ticket_type_id"`
}

// TicketType is a seat category (e.g. STANDARD, VIP) carrying a fixed
// percentage premium applied multiplicatively to a show's base price.
type TicketType struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	PremiumPercent uint32 `json:"premium_percent"`
}

// ShowStatus is the lifecycle state of a show.
type ShowStatus string

const (
	ShowScheduled ShowStatus = "SCHEDULED"
	ShowCancelled ShowStatus = "CANCELLED"
	ShowFinished  ShowStatus = "FINISHED"
)

// Show is one scheduled screening of a movie in a showroom for a time range.
// No two shows in the same showroom may overlap in [StartsAt, EndsAt). The
// base price and schedule become immutable once any seat has been booked.
type Show struct {
	ID             uint64     `json:"id"`
	MovieID        uint64     `json:"movie_id"`
	ShowroomID     uint64     `json:"showroom_id"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         time.Time  `json:"ends_at"`
	BasePriceCents uint32     `json:"base_price_cents"`
	Status         ShowStatus `json:"status"`
}

// Overlaps reports whether the show's time range intersects [start, end).
// Ranges are half-open, so a show ending exactly when another starts does
// not conflict.
func (s Show) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && start.Before(s.EndsAt)
}
