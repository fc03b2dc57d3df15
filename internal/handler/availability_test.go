package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/engine"
)

func TestShowSeatsSnapshot(t *testing.T) {
	eng := newTestEngine(t)
	res := &ReservationHandler{Engine: eng}
	av := &AvailabilityHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, res)
	e.GET("/v1/shows/:id/seats", av.ShowSeats)

	rec := doJSON(e, http.MethodGet, "/v1/shows/1/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Availability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.ShowID)
	require.Len(t, snap.Seats, 3)
	assert.Equal(t, 3, snap.Counts[domain.SeatFree])

	// hold a seat and watch the snapshot change
	rec = doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[101]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/v1/shows/1/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.Counts[domain.SeatFree])
	assert.Equal(t, 1, snap.Counts[domain.SeatHeld])

	assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodGet, "/v1/shows/99/seats", "").Code)
}

func TestListShowsFilters(t *testing.T) {
	eng := newTestEngine(t)
	av := &AvailabilityHandler{Engine: eng}
	e := echo.New()
	e.GET("/v1/shows", av.ListShows)

	rec := doJSON(e, http.MethodGet, "/v1/shows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []domain.Show `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, uint64(1), body.Items[0].ID)

	rec = doJSON(e, http.MethodGet, "/v1/shows?movie_id=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)

	rec = doJSON(e, http.MethodGet, "/v1/shows?movie_id=8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body.Items = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Items)

	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodGet, "/v1/shows?movie_id=zero", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodGet, "/v1/shows?from=not-a-time", "").Code)
}
