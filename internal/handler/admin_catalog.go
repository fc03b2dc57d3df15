package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/catalog"
	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/engine"
)

// AdminHandler groups the catalog repositories and the engine for the
// administrative surface: movies, showrooms with their layouts, ticket
// types and show scheduling.
type AdminHandler struct {
	Movies      *catalog.MovieRepo
	Showrooms   *catalog.ShowroomRepo
	TicketTypes *catalog.TicketTypeRepo
	Shows       *catalog.ShowRepo
	Engine      *engine.Engine
}

// NewAdminHandler constructs an AdminHandler. All dependencies must be
// non-nil.
func NewAdminHandler(movies *catalog.MovieRepo, showrooms *catalog.ShowroomRepo, types *catalog.TicketTypeRepo, shows *catalog.ShowRepo, eng *engine.Engine) *AdminHandler {
	if movies == nil || showrooms == nil || types == nil || shows == nil || eng == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{
		Movies:      movies,
		Showrooms:   showrooms,
		TicketTypes: types,
		Shows:       shows,
		Engine:      eng,
	}
}

// CreateMovie handles POST /v1/admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var body struct {
		Title       string `json:"title"`
		DurationMin uint32 `json:"duration_min"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == "" || body.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min are required"})
	}
	m := domain.Movie{Title: body.Title, DurationMin: body.DurationMin}
	if err := h.Movies.Create(c.Request().Context(), &m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// ListMovies handles GET /v1/admin/movies.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// CreateTicketType handles POST /v1/admin/ticket-types. The premium is an
// integer percentage applied on top of a show's base price.
func (h *AdminHandler) CreateTicketType(c echo.Context) error {
	var body struct {
		Name           string `json:"name"`
		PremiumPercent uint32 `json:"premium_percent"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	tt := domain.TicketType{Name: body.Name, PremiumPercent: body.PremiumPercent}
	if err := h.TicketTypes.Create(c.Request().Context(), &tt); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, tt)
}

// ListTicketTypes handles GET /v1/admin/ticket-types.
func (h *AdminHandler) ListTicketTypes(c echo.Context) error {
	types, err := h.TicketTypes.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": types})
}

// CreateShowroom handles POST /v1/admin/showrooms. The request carries the
// room dimensions plus the full seat layout; the layout is written in the
// same transaction as the room and is immutable afterwards.
func (h *AdminHandler) CreateShowroom(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Rows  uint32 `json:"seat_rows"`
		Cols  uint32 `json:"seat_cols"`
		Seats []struct {
			RowLabel     string `json:"row_label"`
			SeatNumber   uint32 `json:"seat_number"`
			TicketTypeID uint64 `json:"ticket_type_id"`
		} `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and seats are required"})
	}
	ctx := c.Request().Context()
	known, err := h.TicketTypes.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	valid := make(map[uint64]struct{}, len(known))
	for _, tt := range known {
		valid[tt.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(body.Seats))
	seats := make([]domain.Seat, 0, len(body.Seats))
	for _, s := range body.Seats {
		if s.RowLabel == "" || s.SeatNumber == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each seat needs row_label and seat_number"})
		}
		if _, ok := valid[s.TicketTypeID]; !ok {
			return fail(c, domain.ErrTicketTypeNotFound)
		}
		key := fmt.Sprintf("%s#%d", s.RowLabel, s.SeatNumber)
		if _, dup := seen[key]; dup {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat position in layout"})
		}
		seen[key] = struct{}{}
		seats = append(seats, domain.Seat{
			RowLabel:     s.RowLabel,
			SeatNumber:   s.SeatNumber,
			TicketTypeID: s.TicketTypeID,
		})
	}
	room := domain.Showroom{Name: body.Name, SeatRows: body.Rows, SeatCols: body.Cols}
	if err := h.Showrooms.Create(ctx, &room, seats); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"showroom": room,
		"seats":    seats,
	})
}

// ListShowrooms handles GET /v1/admin/showrooms.
func (h *AdminHandler) ListShowrooms(c echo.Context) error {
	rooms, err := h.Showrooms.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}
