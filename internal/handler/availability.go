package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/catalog"
	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/engine"
)

// AvailabilityHandler serves the read side: seat snapshots, bookable show
// search and showroom layouts. All seat data comes from the engine's
// lock-free snapshots, so these endpoints never block an in-flight hold.
type AvailabilityHandler struct {
	Engine    *engine.Engine
	Showrooms *catalog.ShowroomRepo
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(eng *engine.Engine, showrooms *catalog.ShowroomRepo) *AvailabilityHandler {
	if eng == nil {
		panic("nil engine passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Engine: eng, Showrooms: showrooms}
}

// ShowSeats handles GET /v1/shows/:id/seats. It returns a point-in-time
// snapshot of every seat's status plus per-status counts.
func (h *AvailabilityHandler) ShowSeats(c echo.Context) error {
	showID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	av, err := h.Engine.SeatAvailability(showID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// ListShows handles GET /v1/shows. It returns bookable shows, optionally
// narrowed by movie_id and a from/to window on the start time (RFC 3339).
func (h *AvailabilityHandler) ListShows(c echo.Context) error {
	var criteria engine.BookableCriteria
	if raw := c.QueryParam("movie_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		criteria.MovieID = id
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from timestamp"})
		}
		criteria.From = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to timestamp"})
		}
		criteria.To = t
	}
	shows := h.Engine.ListBookableShows(criteria)
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// layoutRow is one row of a showroom layout with its seats in order.
type layoutRow struct {
	RowLabel string        `json:"row_label"`
	Seats    []domain.Seat `json:"seats"`
}

// ShowroomSeats handles GET /v1/showrooms/:id/seats. It returns the static
// seat layout of a room grouped by row, independent of any show. Guests
// use this to preview a room before picking a show.
func (h *AvailabilityHandler) ShowroomSeats(c echo.Context) error {
	roomID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom id"})
	}
	ctx := c.Request().Context()
	room, err := h.Showrooms.GetByID(ctx, roomID)
	if err != nil {
		return fail(c, err)
	}
	seats, err := h.Showrooms.Seats(ctx, roomID)
	if err != nil {
		return fail(c, err)
	}
	// Seats arrive ordered by row label then number, so rows build in order.
	rows := make([]layoutRow, 0)
	for _, s := range seats {
		if n := len(rows); n == 0 || rows[n-1].RowLabel != s.RowLabel {
			rows = append(rows, layoutRow{RowLabel: s.RowLabel})
		}
		rows[len(rows)-1].Seats = append(rows[len(rows)-1].Seats, s)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showroom": room,
		"rows":     rows,
	})
}
