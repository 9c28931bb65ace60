package oddsfeed

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/charleschow/match-features/internal/core/scoring"
	"github.com/charleschow/match-features/internal/telemetry"
)

const DefaultTTL = 2 * time.Minute

// Cache serves the feed file, re-reading it at most once per TTL.
// Concurrent callers that find it stale share a single read.
type Cache struct {
	path string
	ttl  time.Duration

	mu       sync.RWMutex
	fixtures []scoring.Fixture
	loadedAt time.Time
	modTime  time.Time

	sfGroup singleflight.Group
	now     func() time.Time
}

func NewCache(path string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{path: path, ttl: ttl, now: time.Now}
}

// Fixtures returns the current feed contents. A failed refresh keeps
// serving the last good read when there is one.
func (c *Cache) Fixtures(ctx context.Context) ([]scoring.Fixture, error) {
	c.mu.RLock()
	fresh := !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
	cached := c.fixtures
	c.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	v, err, _ := c.sfGroup.Do(c.path, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.refresh()
	})
	if err != nil {
		if cached != nil {
			telemetry.Warnf("oddsfeed: refresh failed, serving %d cached fixtures: %v", len(cached), err)
			return cached, nil
		}
		return nil, err
	}
	return v.([]scoring.Fixture), nil
}

func (c *Cache) refresh() ([]scoring.Fixture, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("stat odds feed: %w", err)
	}

	c.mu.RLock()
	unchanged := c.fixtures != nil && info.ModTime().Equal(c.modTime)
	c.mu.RUnlock()
	if unchanged {
		c.mu.Lock()
		c.loadedAt = c.now()
		fs := c.fixtures
		c.mu.Unlock()
		return fs, nil
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open odds feed: %w", err)
	}
	defer f.Close()
	fs, err := Read(f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.fixtures = fs
	c.loadedAt = c.now()
	c.modTime = info.ModTime()
	c.mu.Unlock()
	telemetry.Infof("oddsfeed: loaded %d fixtures from %s", len(fs), c.path)
	return fs, nil
}
