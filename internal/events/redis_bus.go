package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

const defaultChannel = "catalog-events"

// RedisBus publishes events on a Redis channel so every instance behind a
// load balancer can forward them to its own Hub.
type RedisBus struct {
	rdb     *goredis.Client
	channel string
	logger  *zap.Logger
}

var _ domain.Publisher = (*RedisBus)(nil)

func NewRedisBus(ctx context.Context, addr, channel string, logger *zap.Logger) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	if channel == "" {
		channel = defaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With(zap.String("component", "redis_bus")),
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, e domain.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and hands every event to hub
// until ctx is done.
func (b *RedisBus) StartForwarder(ctx context.Context, hub *Hub) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var e domain.Event
				if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
					b.logger.Warn("bad event payload", zap.Error(err))
					continue
				}
				hub.Dispatch(e)
			}
		}
	}()
	return nil
}

func (b *RedisBus) CheckConnection(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
