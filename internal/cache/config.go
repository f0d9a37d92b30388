package cache

import "time"

// Config describes the Valkey/Redis deployment shared by the seat map cache
// and the seat hold store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// SeatMapCacheEnabled turns on the read-through seat map cache.
	SeatMapCacheEnabled bool
	SeatMapTTL          time.Duration
	// ClientSideCache enables RESP3 client tracking for seat map reads.
	ClientSideCache bool

	// HoldsEnabled turns on cross-session seat holds at booking time.
	HoldsEnabled bool
	HoldTTL      time.Duration
}
