package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinohall/seat-reservation/internal/domain"
	"github.com/kinohall/seat-reservation/internal/engine"
	"github.com/kinohall/seat-reservation/internal/queue"
)

type nopStore struct{}

func (nopStore) InitSeatStates(context.Context, uint64, []uint64) error        { return nil }
func (nopStore) SaveHold(context.Context, *domain.Reservation) error          { return nil }
func (nopStore) SaveConfirm(context.Context, *domain.Reservation, []domain.Ticket) error {
	return nil
}
func (nopStore) SaveRelease(context.Context, *domain.Reservation) error { return nil }
func (nopStore) SaveExpiry(context.Context, *domain.Reservation) error  { return nil }

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(nopStore{}, engine.Config{})
	show := domain.Show{
		ID:             1,
		MovieID:        7,
		ShowroomID:     3,
		StartsAt:       time.Now().UTC().Add(2 * time.Hour),
		EndsAt:         time.Now().UTC().Add(4 * time.Hour),
		BasePriceCents: 1000,
		Status:         domain.ShowScheduled,
	}
	seats := []domain.Seat{
		{ID: 101, ShowroomID: 3, RowLabel: "A", SeatNumber: 1, TicketTypeID: 2},
		{ID: 102, ShowroomID: 3, RowLabel: "A", SeatNumber: 2, TicketTypeID: 1},
		{ID: 103, ShowroomID: 3, RowLabel: "A", SeatNumber: 3, TicketTypeID: 1},
	}
	types := []domain.TicketType{
		{ID: 1, Name: "STANDARD", PremiumPercent: 0},
		{ID: 2, Name: "VIP", PremiumPercent: 50},
	}
	require.NoError(t, eng.AddShow(context.Background(), show, seats, types))
	return eng
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerRoutes(e *echo.Echo, h *ReservationHandler) {
	e.POST("/v1/shows/:id/hold", h.HoldSeats)
	e.POST("/v1/reservations/confirm", h.Confirm)
	e.POST("/v1/reservations/release", h.Release)
	e.GET("/v1/reservations/:token", h.GetReservation)
}

func TestHoldConfirmFlow(t *testing.T) {
	eng := newTestEngine(t)
	h := &ReservationHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, h)

	rec := doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[101,102]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var hold struct {
		HolderToken string   `json:"holder_token"`
		SeatIDs     []uint64 `json:"seat_ids"`
		ExpiresAt   string   `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))
	require.NotEmpty(t, hold.HolderToken)
	assert.ElementsMatch(t, []uint64{101, 102}, hold.SeatIDs)
	_, err := time.Parse(time.RFC3339, hold.ExpiresAt)
	assert.NoError(t, err)

	// overlapping hold conflicts
	rec = doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[102,103]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/reservations/confirm", `{"holder_token":"`+hold.HolderToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var confirm struct {
		Tickets    []domain.Ticket `json:"tickets"`
		TotalCents uint32          `json:"total_price_cents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirm))
	require.Len(t, confirm.Tickets, 2)
	assert.Equal(t, uint32(2500), confirm.TotalCents)

	// releasing a confirmed reservation is a 404
	rec = doJSON(e, http.MethodPost, "/v1/reservations/release", `{"holder_token":"`+hold.HolderToken+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHoldValidation(t *testing.T) {
	eng := newTestEngine(t)
	h := &ReservationHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, h)

	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/shows/abc/hold", `{"seat_ids":[101]}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[999]}`).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodPost, "/v1/shows/42/hold", `{"seat_ids":[101]}`).Code)
}

func TestConfirmUnknownToken(t *testing.T) {
	eng := newTestEngine(t)
	h := &ReservationHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, h)

	assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodPost, "/v1/reservations/confirm", `{"holder_token":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/reservations/confirm", `{}`).Code)
}

func TestReleaseFreesSeats(t *testing.T) {
	eng := newTestEngine(t)
	h := &ReservationHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, h)

	rec := doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[101]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var hold struct {
		HolderToken string `json:"holder_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))

	rec = doJSON(e, http.MethodPost, "/v1/reservations/release", `{"holder_token":"`+hold.HolderToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// seat can be held again by someone else
	rec = doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[101]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetReservation(t *testing.T) {
	eng := newTestEngine(t)
	h := &ReservationHandler{Engine: eng}
	e := echo.New()
	registerRoutes(e, h)

	rec := doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[102]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var hold struct {
		HolderToken string `json:"holder_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))

	rec = doJSON(e, http.MethodGet, "/v1/reservations/"+hold.HolderToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Reservation domain.Reservation `json:"reservation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ReservationHolding, got.Reservation.Status)
	assert.Equal(t, []uint64{102}, got.Reservation.SeatIDs)

	assert.Equal(t, http.StatusNotFound, doJSON(e, http.MethodGet, "/v1/reservations/unknown", "").Code)
}

func TestConfirmPublishesTicketEvent(t *testing.T) {
	eng := newTestEngine(t)

	var mu sync.Mutex
	var events []queue.TicketIssuedEvent
	h := &ReservationHandler{
		Engine: eng,
		Publish: func(_ context.Context, ev queue.TicketIssuedEvent) error {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		},
	}
	e := echo.New()
	registerRoutes(e, h)

	rec := doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[101]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var hold struct {
		HolderToken string `json:"holder_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))

	rec = doJSON(e, http.MethodPost, "/v1/reservations/confirm", `{"holder_token":"`+hold.HolderToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	ev := events[0]
	mu.Unlock()
	assert.Equal(t, hold.HolderToken, ev.HolderToken)
	assert.Equal(t, uint64(1), ev.ShowID)
	assert.Equal(t, uint64(1500), ev.TotalPriceCents)
	require.Len(t, ev.Tickets, 1)
	assert.Equal(t, uint64(101), ev.Tickets[0].SeatID)
}

func TestRepeatConfirmPublishesOnce(t *testing.T) {
	eng := newTestEngine(t)

	var mu sync.Mutex
	var events []queue.TicketIssuedEvent
	h := &ReservationHandler{
		Engine: eng,
		Publish: func(_ context.Context, ev queue.TicketIssuedEvent) error {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		},
	}
	e := echo.New()
	registerRoutes(e, h)

	rec := doJSON(e, http.MethodPost, "/v1/shows/1/hold", `{"seat_ids":[102]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var hold struct {
		HolderToken string `json:"holder_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hold))

	body := `{"holder_token":"` + hold.HolderToken + `"}`
	rec = doJSON(e, http.MethodPost, "/v1/reservations/confirm", body)
	require.Equal(t, http.StatusOK, rec.Code)
	first := rec.Body.String()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A repeat confirm returns the same tickets but issues no second event.
	rec = doJSON(e, http.MethodPost, "/v1/reservations/confirm", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, first, rec.Body.String())

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 1
	}, 200*time.Millisecond, 10*time.Millisecond)
}
