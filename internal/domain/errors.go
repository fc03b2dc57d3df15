// Package domain defines the entities and sentinel errors shared by every
// layer of the reservation engine. Handlers compare these sentinels with
// errors.Is to pick response codes; lower layers wrap them with fmt.Errorf
// and %w so the kind survives annotation.
package domain

import "errors"

// ErrSeatUnavailable is returned by a hold attempt when at least one of the
// requested seats is not Free. The whole hold fails and no seat changes
// state; callers should re-query availability and retry with a fresh seat
// set. Handlers translate this into HTTP 409.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrReservationExpired is returned by confirm when the hold's TTL elapsed
// before the call. The seats have already reverted to Free (or will on the
// next sweep) and the caller must re-hold. Handlers translate this into
// HTTP 410.
var ErrReservationExpired = errors.New("reservation expired")

// ErrReservationNotFound is returned when a holder token is unknown or the
// reservation reached a terminal state that the requested operation cannot
// act on. Handlers translate this into HTTP 404.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrScheduleConflict is returned when an admin attempts to schedule a show
// whose time range overlaps an existing show in the same showroom. Handlers
// translate this into HTTP 409.
var ErrScheduleConflict = errors.New("schedule conflict")

// ErrInvalidSeatSet is returned by a hold attempt when the seat set is empty,
// contains duplicates only, or references a seat that does not exist in the
// show's layout. No state changes. Handlers translate this into HTTP 400.
var ErrInvalidSeatSet = errors.New("invalid seat set")

// ErrShowNotFound indicates that a show lookup yielded no rows.
var ErrShowNotFound = errors.New("show not found")

// ErrShowroomNotFound indicates that a showroom lookup yielded no rows.
var ErrShowroomNotFound = errors.New("showroom not found")

// ErrMovieNotFound indicates that a movie lookup yielded no rows.
var ErrMovieNotFound = errors.New("movie not found")

// ErrTicketTypeNotFound indicates that a ticket type lookup yielded no rows.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// ErrShowImmutable is returned when an admin attempts to modify a show that
// already has booked seats. Booked prices are locked at confirmation time,
// so the show's schedule and base price are frozen. Handlers translate this
// into HTTP 409.
var ErrShowImmutable = errors.New("show has booked seats and cannot be modified")

// ErrStoreUnavailable marks a transient infrastructure failure (database
// unreachable, transaction failed to commit). The operation left no partial
// state behind and is safe to retry with backoff. Handlers translate this
// into HTTP 503.
var ErrStoreUnavailable = errors.New("store unavailable")
