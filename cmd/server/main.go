package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kinohall/seat-reservation/internal/catalog"
	"github.com/kinohall/seat-reservation/internal/config"
	"github.com/kinohall/seat-reservation/internal/database"
	"github.com/kinohall/seat-reservation/internal/engine"
	"github.com/kinohall/seat-reservation/internal/handler"
	"github.com/kinohall/seat-reservation/internal/queue"
	"github.com/kinohall/seat-reservation/internal/repository"
	"github.com/kinohall/seat-reservation/internal/router"
	"github.com/kinohall/seat-reservation/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	movieRepo := catalog.NewMovieRepo(db)
	showroomRepo := catalog.NewShowroomRepo(db)
	ticketTypeRepo := catalog.NewTicketTypeRepo(db)
	showRepo := catalog.NewShowRepo(db)
	store := repository.NewBookingStore(db)

	eng := engine.New(store, engine.Config{
		DefaultHoldTTL: cfg.DefaultHoldTTL,
		MaxHoldTTL:     cfg.MaxHoldTTL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rehydrate(ctx, eng, store, showRepo, showroomRepo, ticketTypeRepo); err != nil {
		log.Fatalf("rehydrate: %v", err)
	}

	go sweeper.New(eng, cfg.SweepInterval).Run(ctx)

	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterReservations(e, handler.NewReservationHandler(eng, showRepo), rdb)
	router.RegisterAvailability(e, handler.NewAvailabilityHandler(eng, showroomRepo), rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(movieRepo, showroomRepo, ticketTypeRepo, showRepo, eng))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// rehydrate reloads every show, its persisted seat states and its live
// reservations into the engine. After a restart a hold that has not lapsed
// keeps its seats and its token stays confirmable.
func rehydrate(ctx context.Context, eng *engine.Engine, store *repository.BookingStore, shows *catalog.ShowRepo, showrooms *catalog.ShowroomRepo, ticketTypes *catalog.TicketTypeRepo) error {
	types, err := ticketTypes.List(ctx)
	if err != nil {
		return err
	}
	all, err := shows.List(ctx)
	if err != nil {
		return err
	}
	for _, show := range all {
		seats, err := showrooms.Seats(ctx, show.ShowroomID)
		if err != nil {
			return err
		}
		states, err := store.LoadSeatStates(ctx, show.ID)
		if err != nil {
			return err
		}
		reservations, err := store.LoadLiveReservations(ctx, show.ID)
		if err != nil {
			return err
		}
		eng.RestoreShow(show, seats, types, states, reservations)
	}
	log.Printf("rehydrated %d shows", len(all))
	return nil
}
