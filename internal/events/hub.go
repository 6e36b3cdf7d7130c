// Package events fans out change notifications to subscribed clients,
// either inside one process (Hub) or across processes via Redis (RedisBus).
package events

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

const defaultBuffer = 16

// Hub delivers events to in-process subscribers. A subscriber that falls
// behind loses events instead of blocking publishers; clients re-fetch
// on the next event anyway.
type Hub struct {
	buffer int
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool

	dropped atomic.Uint64
}

var _ domain.Publisher = (*Hub)(nil)

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Hub{
		buffer: buffer,
		logger: logger,
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Subscription receives events for its topics on C until Close.
type Subscription struct {
	C <-chan domain.Event

	ch     chan domain.Event
	topics []string
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(topics ...string) *Subscription {
	ch := make(chan domain.Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, topics: topics, hub: h}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.once.Do(func() { close(ch) })
		return s
	}
	for _, t := range topics {
		if h.subs[t] == nil {
			h.subs[t] = make(map[*Subscription]struct{})
		}
		h.subs[t][s] = struct{}{}
	}
	h.mu.Unlock()
	return s
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		for _, t := range s.topics {
			delete(h.subs[t], s)
			if len(h.subs[t]) == 0 {
				delete(h.subs, t)
			}
		}
		// Under the write lock no Dispatch can be mid-send on s.ch.
		close(s.ch)
		h.mu.Unlock()
	})
}

// Close ends every subscription and makes later ones start closed, so
// streaming handlers return during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := make(map[*Subscription]struct{})
	for _, subs := range h.subs {
		for s := range subs {
			all[s] = struct{}{}
		}
	}
	h.mu.Unlock()

	for s := range all {
		s.Close()
	}
}

// Publish delivers e to local subscribers. It never blocks.
func (h *Hub) Publish(_ context.Context, e domain.Event) error {
	h.Dispatch(e)
	return nil
}

// Dispatch is Publish without the context, for forwarders.
func (h *Hub) Dispatch(e domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[e.Topic] {
		select {
		case s.ch <- e:
		default:
			h.dropped.Add(1)
			h.logger.Warn("subscriber buffer full, event dropped",
				zap.String("topic", e.Topic),
				zap.String("type", string(e.Type)),
			)
		}
	}
}

// Subscribers counts live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Dropped counts events lost to full subscriber buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
