// Package cache holds an in-process, TTL-bounded cache split into shards so
// readers of unrelated keys never contend on the same lock.
package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

const (
	defaultShardCount      = 16
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = time.Minute
)

// Options configures a ShardedCache. Zero values fall back to defaults.
type Options struct {
	Shards          int
	TTL             time.Duration
	CleanupInterval time.Duration
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
}

// ShardedCache is a concurrency-safe cache of V keyed by string.
type ShardedCache[V any] struct {
	shards          []*shard[V]
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	workerMu   sync.Mutex
	workerStop chan struct{}
	workerWg   sync.WaitGroup
}

var _ domain.Cache[int] = (*ShardedCache[int])(nil)

func New[V any](opts Options) *ShardedCache[V] {
	if opts.Shards < 1 {
		opts.Shards = defaultShardCount
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}

	shards := make([]*shard[V], opts.Shards)
	for i := range shards {
		shards[i] = &shard[V]{items: make(map[string]entry[V])}
	}
	return &ShardedCache[V]{
		shards:          shards,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
}

func (c *ShardedCache[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns the live value for key. Expired entries read as misses and
// are left for the cleanup worker.
func (c *ShardedCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if ctx.Err() != nil {
		return zero, false
	}

	s := c.shardFor(key)
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

func (c *ShardedCache[V]) Set(ctx context.Context, key string, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := c.shardFor(key)
	s.mu.Lock()
	s.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	s.mu.Unlock()
	return nil
}

func (c *ShardedCache[V]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// CleanExpired drops expired entries shard by shard, stopping early if ctx
// is cancelled.
func (c *ShardedCache[V]) CleanExpired(ctx context.Context) error {
	for _, s := range c.shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := c.now()
		s.mu.Lock()
		for key, e := range s.items {
			if !now.Before(e.expiresAt) {
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
	return nil
}

// Len counts stored entries, expired ones included.
func (c *ShardedCache[V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// ShardSizes reports the entry count of every shard in order.
func (c *ShardedCache[V]) ShardSizes() []int {
	sizes := make([]int, len(c.shards))
	for i, s := range c.shards {
		s.mu.RLock()
		sizes[i] = len(s.items)
		s.mu.RUnlock()
	}
	return sizes
}

// StartCleanupWorker launches the periodic sweeper. Calling it twice is a
// no-op.
func (c *ShardedCache[V]) StartCleanupWorker() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()

	if c.workerStop != nil {
		return
	}
	c.workerStop = make(chan struct{})
	c.workerWg.Add(1)
	go c.sweep(c.workerStop)
}

// StopCleanupWorker stops the sweeper and waits for it to exit.
func (c *ShardedCache[V]) StopCleanupWorker() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()

	if c.workerStop == nil {
		return
	}
	close(c.workerStop)
	c.workerWg.Wait()
	c.workerStop = nil
}

func (c *ShardedCache[V]) sweep(stop <-chan struct{}) {
	defer c.workerWg.Done()

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.cleanupInterval)
			_ = c.CleanExpired(ctx)
			cancel()
		}
	}
}
