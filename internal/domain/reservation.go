package domain

import "time"

// SeatStatus is the per-show availability state of a single seat. Legal
// transitions are Free->Held, Held->Booked and Held->Free; a booked seat
// never changes state again.
type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatState is the state of one (show, seat) pair. Exactly one record exists
// per pair for the lifetime of the show; it is created Free when the show is
// scheduled and never deleted, so tickets stay resolvable after the show.
// HolderToken and ExpiresAt are meaningful only while Status is SeatHeld;
// TicketID only once Status is SeatBooked.
type SeatState struct {
	SeatID      uint64     `json:"seat_id"`
	Status      SeatStatus `json:"status"`
	HolderToken string     `json:"-"`
	ExpiresAt   time.Time  `json:"-"`
	TicketID    string     `json:"-"`
}

// ReservationStatus is the lifecycle state of a reservation. Holding is the
// only non-terminal state; at most one Holding reservation may reference a
// given seat at a time.
type ReservationStatus string

const (
	ReservationHolding   ReservationStatus = "HOLDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Reservation is a time-limited claim on a set of seats within one show,
// identified by an opaque holder token. Tickets is populated when the
// reservation is confirmed and returned unchanged on idempotent retries.
type Reservation struct {
	HolderToken string            `json:"holder_token"`
	ShowID      uint64            `json:"show_id"`
	SeatIDs     []uint64          `json:"seat_ids"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Tickets     []Ticket          `json:"tickets,omitempty"`
}

// Terminal reports whether the reservation can no longer change state.
func (r *Reservation) Terminal() bool {
	return r.Status != ReservationHolding
}

// Ticket is the permanent record produced when a held seat is confirmed.
// The price is computed exactly once at confirmation time, so later edits
// to the show's base price never reprice an issued ticket.
type Ticket struct {
	ID           string `json:"id"`
	ShowID       uint64 `json:"show_id"`
	SeatID       uint64 `json:"seat_id"`
	TicketTypeID uint64 `json:"ticket_type_id"`
	PriceCents   uint32 `json:"price_cents"`
	HolderToken  string `json:"holder_token"`
}
