package cache

import (
	"context"
	"sync"

	"github.com/digital-egiz/sensorhub/internal/simulator"
)

const defaultCapacity = 100

// MemoryCache is a bounded ring of the most recent frames
type MemoryCache struct {
	mu       sync.RWMutex
	buffer   []*simulator.Frame
	start    int
	capacity int
}

// NewMemoryCache creates a ring holding up to capacity frames
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryCache{
		buffer:   make([]*simulator.Frame, 0, capacity),
		capacity: capacity,
	}
}

// Name implements simulator.Sink
func (c *MemoryCache) Name() string {
	return "memory_cache"
}

// Publish implements simulator.Sink
func (c *MemoryCache) Publish(_ context.Context, frame *simulator.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buffer) < c.capacity {
		c.buffer = append(c.buffer, frame)
		return nil
	}

	// Overwrite the oldest frame
	c.buffer[c.start] = frame
	c.start = (c.start + 1) % c.capacity
	return nil
}

// Latest returns the newest frame
func (c *MemoryCache) Latest(_ context.Context) (*simulator.Frame, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.buffer) == 0 {
		return nil, ErrEmpty
	}
	return c.at(len(c.buffer) - 1), nil
}

// Recent returns up to limit frames, newest first. A non-positive limit
// returns every cached frame.
func (c *MemoryCache) Recent(_ context.Context, limit int) ([]*simulator.Frame, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.buffer)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*simulator.Frame, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, c.at(i))
	}
	return result, nil
}

// at returns the i-th frame in insertion order
func (c *MemoryCache) at(i int) *simulator.Frame {
	return c.buffer[(c.start+i)%len(c.buffer)]
}
