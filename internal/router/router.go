package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kinohall/seat-reservation/internal/config"
	"github.com/kinohall/seat-reservation/internal/handler"
	"github.com/kinohall/seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no shared infrastructure.
// Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the reservation lifecycle under /v1. The
// hold and confirm endpoints are rate limited because they contend on seat
// state; a nil Redis client makes the limiter pass-through.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, rdb *redis.Client) {
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e.POST("/v1/shows/:id/hold", h.HoldSeats, rateLimit)
	e.POST("/v1/reservations/confirm", h.Confirm, rateLimit)
	e.POST("/v1/reservations/release", h.Release)
	e.GET("/v1/reservations/:token", h.GetReservation)
}

// RegisterAvailability registers the public read side under /v1. Responses
// are cached briefly in Redis to absorb availability polling; seat
// snapshots tolerate that staleness since they are point-in-time views
// anyway.
func RegisterAvailability(e *echo.Echo, h *handler.AvailabilityHandler, rdb *redis.Client) {
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	e.GET("/v1/shows", h.ListShows, cache)
	e.GET("/v1/shows/:id/seats", h.ShowSeats, cache)
	e.GET("/v1/showrooms/:id/seats", h.ShowroomSeats, cache)
}

// RegisterAdmin registers the catalog management surface under /v1/admin:
// movies, ticket types, showrooms with their layouts, and show scheduling.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler) {
	g := e.Group("/v1/admin")
	g.POST("/movies", h.CreateMovie)
	g.GET("/movies", h.ListMovies)
	g.POST("/ticket-types", h.CreateTicketType)
	g.GET("/ticket-types", h.ListTicketTypes)
	g.POST("/showrooms", h.CreateShowroom)
	g.GET("/showrooms", h.ListShowrooms)
	g.POST("/shows", h.CreateShow)
	g.GET("/shows", h.ListAdminShows)
	g.DELETE("/shows/:id", h.CancelShow)
	g.PATCH("/shows/:id/price", h.UpdateBasePrice)
}
