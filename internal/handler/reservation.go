package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/catalog"
	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/engine"
	"github.com/kinohall/seat-reservation/internal/queue"
)

// ReservationHandler exposes the hold, confirm and release operations of the
// reservation engine. The engine owns all seat-state transitions; the handler
// only binds requests, maps sentinel errors to HTTP statuses and emits the
// ticket audit event after a successful confirmation.
type ReservationHandler struct {
	Engine *engine.Engine
	Shows  *catalog.ShowRepo

	// Publish sends the ticket-issued audit event. Nil disables publishing;
	// tests inject a recorder here.
	Publish func(ctx context.Context, event queue.TicketIssuedEvent) error
}

// NewReservationHandler constructs a ReservationHandler wired to the broker
// publisher. The show repo may be nil; it is only used to enrich events.
func NewReservationHandler(eng *engine.Engine, shows *catalog.ShowRepo) *ReservationHandler {
	if eng == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Engine:  eng,
		Shows:   shows,
		Publish: queue.PublishTicketIssued,
	}
}

// HoldSeats handles POST /v1/shows/:id/hold. The body carries the seat IDs
// to hold and an optional TTL in seconds; the engine clamps the TTL to its
// configured bounds. On success every requested seat is held under one fresh
// holder token, on failure none are.
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	showID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		SeatIDs    []uint64 `json:"seat_ids"`
		TTLSeconds uint32   `json:"ttl_seconds"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	ttl := time.Duration(body.TTLSeconds) * time.Second
	res, err := h.Engine.Hold(c.Request().Context(), showID, body.SeatIDs, ttl)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"holder_token": res.HolderToken,
		"show_id":      res.ShowID,
		"seat_ids":     res.SeatIDs,
		"expires_at":   res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Confirm handles POST /v1/reservations/confirm. It turns an active hold
// into booked seats and returns the issued tickets. Confirming an already
// confirmed reservation returns the same tickets again.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	var body struct {
		HolderToken string `json:"holder_token"`
	}
	if err := c.Bind(&body); err != nil || body.HolderToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder_token is required"})
	}
	ctx := c.Request().Context()
	tickets, issued, err := h.Engine.Confirm(ctx, body.HolderToken)
	if err != nil {
		return fail(c, err)
	}
	total := uint32(0)
	for _, t := range tickets {
		total += t.PriceCents
	}
	if issued {
		h.publishTicketIssued(body.HolderToken, tickets, total)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"holder_token":      body.HolderToken,
		"tickets":           tickets,
		"total_price_cents": total,
	})
}

// Release handles POST /v1/reservations/release. It frees all seats of an
// active hold. Releasing a confirmed, released or expired reservation
// responds 404; the hold no longer exists as a releasable thing.
func (h *ReservationHandler) Release(c echo.Context) error {
	var body struct {
		HolderToken string `json:"holder_token"`
	}
	if err := c.Bind(&body); err != nil || body.HolderToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "holder_token is required"})
	}
	if err := h.Engine.Release(c.Request().Context(), body.HolderToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(domain.ReservationReleased)})
}

// GetReservation handles GET /v1/reservations/:token. It returns the current
// state of a reservation, including issued tickets once confirmed. This is
// the lookup callers use to re-fetch tickets after losing a response.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	res, err := h.Engine.Reservation(token)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// publishTicketIssued emits the audit event for a confirmation. Publishing
// is best effort and runs outside the request path; a broker outage must
// never fail a confirm that already persisted.
func (h *ReservationHandler) publishTicketIssued(token string, tickets []domain.Ticket, total uint32) {
	if h.Publish == nil || len(tickets) == 0 {
		return
	}
	event := queue.TicketIssuedEvent{
		HolderToken:     token,
		ShowID:          tickets[0].ShowID,
		TotalPriceCents: uint64(total),
		ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	for _, t := range tickets {
		event.Tickets = append(event.Tickets, queue.TicketLine{
			TicketID:   t.ID,
			SeatID:     t.SeatID,
			PriceCents: t.PriceCents,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if h.Shows != nil {
			if show, err := h.Shows.GetByID(ctx, event.ShowID); err == nil {
				event.MovieID = show.MovieID
				event.ShowroomID = show.ShowroomID
				event.StartsAt = show.StartsAt.UTC().Format(time.RFC3339)
			}
		}
		if err := h.Publish(ctx, event); err != nil {
			log.Printf("ticket event publish failed for %s: %v", token, err)
		}
	}()
}
