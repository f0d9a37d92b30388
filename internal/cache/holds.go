package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "eventify/internal/errors"
	"eventify/internal/logger"
)

// NewRedisClient connects a go-redis client and verifies it with PING.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}
	return rdb, nil
}

// acquireScript sets every hold key to the owner unless one of them is held
// by someone else. Returns 0 on success or the 1-based index of the first
// conflicting key.
var acquireScript = redis.NewScript(`
	local owner = ARGV[1]
	local ttl_ms = tonumber(ARGV[2])
	for i, key in ipairs(KEYS) do
		local current = redis.call('GET', key)
		if current and current ~= owner then
			return i
		end
	end
	for _, key in ipairs(KEYS) do
		redis.call('SET', key, owner, 'PX', ttl_ms)
	end
	return 0
`)

// releaseScript deletes the hold keys still owned by the caller.
var releaseScript = redis.NewScript(`
	local released = 0
	for _, key in ipairs(KEYS) do
		if redis.call('GET', key) == ARGV[1] then
			redis.call('DEL', key)
			released = released + 1
		end
	end
	return released
`)

// HoldStore leases seats to one owner for a limited time so two sessions
// cannot submit bookings for the same seat concurrently.
type HoldStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHoldStore(client *redis.Client, ttl time.Duration) *HoldStore {
	return &HoldStore{client: client, ttl: ttl}
}

func holdKey(eventID, seatID string) string {
	// hash tag keeps all seats of an event on one cluster slot
	return fmt.Sprintf("hold:{%s}:%s", eventID, seatID)
}

func holdKeys(eventID string, seatIDs []string) []string {
	keys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = holdKey(eventID, id)
	}
	return keys
}

// Acquire holds all seats for owner or none of them. A seat already held by
// another owner fails with ErrSeatsHeld. Re-acquiring extends the lease.
func (h *HoldStore) Acquire(ctx context.Context, eventID string, seatIDs []string, owner string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	res, err := acquireScript.Run(ctx, h.client, holdKeys(eventID, seatIDs), owner, h.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to acquire seat holds: %w", err)
	}
	if res > 0 {
		logger.WithContext(ctx).Info("Seat hold conflict",
			"event_id", eventID, "seat_id", seatIDs[res-1], "owner", owner)
		return fmt.Errorf("seat %s: %w", seatIDs[res-1], apperrors.ErrSeatsHeld)
	}
	return nil
}

// Release drops the holds owner still has on the seats.
func (h *HoldStore) Release(ctx context.Context, eventID string, seatIDs []string, owner string) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	n, err := releaseScript.Run(ctx, h.client, holdKeys(eventID, seatIDs), owner).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to release seat holds: %w", err)
	}
	return n, nil
}
