package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// CreateShow handles POST /v1/admin/shows. It schedules a screening of a
// movie in a showroom. The repository rejects schedules overlapping an
// existing show in the same room, then the show is registered with the
// engine so holds can start immediately.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var body struct {
		MovieID        uint64 `json:"movie_id"`
		ShowroomID     uint64 `json:"showroom_id"`
		StartsAt       string `json:"starts_at"`
		EndsAt         string `json:"ends_at"`
		BasePriceCents uint32 `json:"base_price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MovieID == 0 || body.ShowroomID == 0 || body.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, showroom_id and base_price_cents are required"})
	}
	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at timestamp"})
	}
	endsAt, err := time.Parse(time.RFC3339, body.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at timestamp"})
	}
	if !startsAt.Before(endsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be before ends_at"})
	}

	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, body.MovieID); err != nil {
		return fail(c, err)
	}
	if _, err := h.Showrooms.GetByID(ctx, body.ShowroomID); err != nil {
		return fail(c, err)
	}

	show := domain.Show{
		MovieID:        body.MovieID,
		ShowroomID:     body.ShowroomID,
		StartsAt:       startsAt.UTC(),
		EndsAt:         endsAt.UTC(),
		BasePriceCents: body.BasePriceCents,
		Status:         domain.ShowScheduled,
	}
	if err := h.Shows.Create(ctx, &show); err != nil {
		if errors.Is(err, domain.ErrScheduleConflict) {
			conflicts, lerr := h.Shows.FindOverlapping(ctx, show.ShowroomID, show.StartsAt, show.EndsAt)
			if lerr == nil {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":     err.Error(),
					"conflicts": conflicts,
				})
			}
		}
		return fail(c, err)
	}

	seats, err := h.Showrooms.Seats(ctx, show.ShowroomID)
	if err != nil {
		return fail(c, err)
	}
	types, err := h.TicketTypes.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Engine.AddShow(ctx, show, seats, types); err != nil {
		// The catalog row exists; rehydration on restart will pick it up.
		log.Printf("show %d created but engine registration failed: %v", show.ID, err)
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, show)
}

// ListAdminShows handles GET /v1/admin/shows. Unlike the public listing it
// returns every show regardless of status or remaining capacity.
func (h *AdminHandler) ListAdminShows(c echo.Context) error {
	shows, err := h.Shows.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// CancelShow handles DELETE /v1/admin/shows/:id. The show is marked
// CANCELLED rather than removed, so its seat states and any issued holds
// stay resolvable; a show with booked seats cannot be cancelled.
func (h *AdminHandler) CancelShow(c echo.Context) error {
	showID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	if err := h.Engine.CancelShow(showID); err != nil {
		return fail(c, err)
	}
	if err := h.Shows.Cancel(ctx, showID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateBasePrice handles PATCH /v1/admin/shows/:id/price. The price is
// frozen as soon as any seat of the show is booked, because issued tickets
// captured the old price.
func (h *AdminHandler) UpdateBasePrice(c echo.Context) error {
	showID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		BasePriceCents uint32 `json:"base_price_cents"`
	}
	if err := c.Bind(&body); err != nil || body.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents is required"})
	}
	ctx := c.Request().Context()
	if err := h.Engine.SetBasePrice(showID, body.BasePriceCents); err != nil {
		return fail(c, err)
	}
	if err := h.Shows.UpdateBasePrice(ctx, showID, body.BasePriceCents); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":          showID,
		"base_price_cents": body.BasePriceCents,
	})
}
