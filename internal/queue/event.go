// Package queue defines the audit events published over the message broker
// and the background consumer that records them. The stream is append-only
// bookkeeping: confirmations are durable in MySQL regardless, and a broker
// outage never fails a booking.
package queue

// TicketIssuedEvent is published when a reservation is confirmed and its
// tickets are issued. It carries enough for downstream audit and analytics
// without a round trip to the primary database.
type TicketIssuedEvent struct {
	HolderToken     string       `json:"holder_token"`
	ShowID          uint64       `json:"show_id"`
	MovieID         uint64       `json:"movie_id"`
	ShowroomID      uint64       `json:"showroom_id"`
	StartsAt        string       `json:"starts_at"`
	Tickets         []TicketLine `json:"tickets"`
	TotalPriceCents uint64       `json:"total_price_cents"`
	ConfirmedAt     string       `json:"confirmed_at"`
}

// TicketLine is one issued ticket inside a TicketIssuedEvent.
type TicketLine struct {
	TicketID   string `json:"ticket_id"`
	SeatID     uint64 `json:"seat_id"`
	PriceCents uint32 `json:"price_cents"`
}
