// Package pricing derives a seat's price from a show's base price and the
// seat category's percentage premium. All arithmetic is integer cents, so
// results are exact and the half-up rounding policy is deterministic.
package pricing

import "github.com/kinohall/seat-reservation/internal/domain"

// PriceCents returns baseCents increased by premiumPercent percent, rounded
// half-up to the nearest cent. A premium of 0 returns baseCents unchanged.
func PriceCents(baseCents uint32, premiumPercent uint32) uint32 {
	total := uint64(baseCents) * uint64(100+premiumPercent)
	return uint32((total + 50) / 100)
}

// ForSeat prices one seat of a show given its ticket type. It must be called
// exactly once per seat at confirmation time so the price locks to the base
// price in effect when the booking happened.
func ForSeat(show *domain.Show, tt *domain.TicketType) uint32 {
	return PriceCents(show.BasePriceCents, tt.PremiumPercent)
}
