package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/domain"
)

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// fail translates domain sentinel errors into HTTP responses. Anything not
// recognised becomes a 500 so infrastructure details never leak to clients.
func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSeatSet):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrShowNotFound),
		errors.Is(err, domain.ErrShowroomNotFound),
		errors.Is(err, domain.ErrMovieNotFound),
		errors.Is(err, domain.ErrTicketTypeNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrScheduleConflict),
		errors.Is(err, domain.ErrShowImmutable):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrReservationExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg})
}
