package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/park285/Cheese-Tafl/internal/session"
)

const redisChannelPrefix = "tafl:events"

// RedisPublisher fans events out over Redis pub/sub: once on the per-session
// channel and once on the global one.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher { return &RedisPublisher{rdb: rdb} }

func SessionChannel(sessionID string) string { return redisChannelPrefix + ":" + sessionID }

func GlobalChannel() string { return redisChannelPrefix }

func (p *RedisPublisher) Publish(ctx context.Context, ev session.Event) error {
	payload, err := json.Marshal(session.ToDTOEvent(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, SessionChannel(ev.SessionID), payload)
	pipe.Publish(ctx, GlobalChannel(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
