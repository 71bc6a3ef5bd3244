package notifiers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisChannel = "catalog-crawler"

// redisSender PUBLISHes JSON messages on a channel.
type redisSender struct {
	client  *redis.Client
	channel string
}

func newRedisSender(ctx context.Context, s Settings, _ Logger) (Sender, error) {
	addr := strings.TrimSpace(s.RedisAddr)
	if addr == "" {
		return nil, &ConfigError{Kind: KindRedis, Reason: "redis_addr is required"}
	}
	channel := strings.TrimSpace(s.RedisChannel)
	if channel == "" {
		channel = defaultRedisChannel
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: s.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &ConfigError{Kind: KindRedis, Reason: "ping", Err: err}
	}
	return &redisSender{client: client, channel: channel}, nil
}

func (r *redisSender) Kind() string { return KindRedis }

func (r *redisSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}

func (r *redisSender) Close() error { return r.client.Close() }
