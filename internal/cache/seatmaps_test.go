package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMemoryKV() *memoryKV { return &memoryKV{data: make(map[string][]byte)} }

func (m *memoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, false, errors.New("connection refused")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection refused")
	}
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingSource struct {
	calls int
	maps  map[string]*models.SeatMap
}

func (c *countingSource) GetSeatMap(ctx context.Context, eventID string) (*models.SeatMap, error) {
	c.calls++
	m, ok := c.maps[eventID]
	if !ok {
		return nil, apperrors.ErrMapUnavailable
	}
	return m.Clone(), nil
}

func testSeatMap() *models.SeatMap {
	return &models.SeatMap{
		ID:      "map-1",
		EventID: "1",
		Sections: []models.Section{{
			ID:    "section-1",
			Rows:  []string{"A"},
			Seats: []models.Seat{{ID: "A-1", Row: "A", Number: 1, Status: models.SeatAvailable, CategoryID: "standard"}},
		}},
		Categories: []models.SeatCategory{{ID: "standard", Price: 7500}},
	}
}

func TestSeatMapCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{maps: map[string]*models.SeatMap{"1": testSeatMap()}}
	cache := NewSeatMapCache(src, newMemoryKV(), time.Minute)

	first, err := cache.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	second, err := cache.GetSeatMap(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)

	require.NoError(t, cache.Invalidate(ctx, "1"))
	_, err = cache.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestSeatMapCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{maps: map[string]*models.SeatMap{}}
	cache := NewSeatMapCache(src, newMemoryKV(), time.Minute)

	_, err := cache.GetSeatMap(ctx, "404")
	assert.ErrorIs(t, err, apperrors.ErrMapUnavailable)
	_, err = cache.GetSeatMap(ctx, "404")
	assert.ErrorIs(t, err, apperrors.ErrMapUnavailable)
	assert.Equal(t, 2, src.calls)
}

func TestSeatMapCacheFallsThroughOnKVFailure(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{maps: map[string]*models.SeatMap{"1": testSeatMap()}}
	kv := newMemoryKV()
	kv.fail = true
	cache := NewSeatMapCache(src, kv, time.Minute)

	m, err := cache.GetSeatMap(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "map-1", m.ID)
}
