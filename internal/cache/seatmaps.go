package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"eventify/internal/logger"
	"eventify/internal/models"
)

// KV is the byte store behind SeatMapCache.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// NewRueidisClient connects a rueidis client. Client-side caching needs a
// RESP3 server with tracking support.
func NewRueidisClient(cfg Config) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: !cfg.ClientSideCache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}
	return client, nil
}

// RueidisKV implements KV on top of rueidis.
type RueidisKV struct {
	client      rueidis.Client
	clientCache bool
}

func NewRueidisKV(client rueidis.Client, clientCache bool) *RueidisKV {
	return &RueidisKV{client: client, clientCache: clientCache}
}

func (k *RueidisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var res rueidis.RedisResult
	if k.clientCache {
		res = k.client.DoCache(ctx, k.client.B().Get().Key(key).Cache(), time.Minute)
	} else {
		res = k.client.Do(ctx, k.client.B().Get().Key(key).Build())
	}
	b, err := res.AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (k *RueidisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := k.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	if secs := int64(ttl / time.Second); secs > 0 {
		return k.client.Do(ctx, set.ExSeconds(secs).Build()).Error()
	}
	return k.client.Do(ctx, set.Build()).Error()
}

func (k *RueidisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return k.client.Do(ctx, k.client.B().Del().Key(keys...).Build()).Error()
}

type seatMapSource interface {
	GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error)
}

// SeatMapCache is a read-through cache in front of a seat map source. Cache
// failures fall through to the source.
type SeatMapCache struct {
	next seatMapSource
	kv   KV
	ttl  time.Duration
}

func NewSeatMapCache(next seatMapSource, kv KV, ttl time.Duration) *SeatMapCache {
	return &SeatMapCache{next: next, kv: kv, ttl: ttl}
}

func seatMapKey(eventID string) string {
	return "seatmap:" + eventID
}

func (c *SeatMapCache) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	log := logger.WithContext(ctx)

	raw, ok, err := c.kv.Get(ctx, seatMapKey(eventID))
	if err != nil {
		log.Warn("Seat map cache read failed", "event_id", eventID, "error", err)
	}
	if ok {
		var m models.SeatMap
		if err := json.Unmarshal(raw, &m); err == nil {
			return &m, nil
		}
		log.Warn("Dropping undecodable cached seat map", "event_id", eventID)
	}

	m, err := c.next.GetSeatMap(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(m); err == nil {
		if err := c.kv.Set(ctx, seatMapKey(eventID), raw, c.ttl); err != nil {
			log.Warn("Seat map cache write failed", "event_id", eventID, "error", err)
		}
	}
	return m, nil
}

// Invalidate drops cached maps so the next read sees new seat statuses.
func (c *SeatMapCache) Invalidate(ctx context.Context, eventIDs ...string) error {
	keys := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		keys[i] = seatMapKey(id)
	}
	return c.kv.Del(ctx, keys...)
}
