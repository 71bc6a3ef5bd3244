package notifiers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisSenderPublishesOnChannel(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sub := rdb.Subscribe(ctx, "deals")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sender, err := newRedisSender(ctx, Settings{RedisAddr: s.Addr(), RedisChannel: "deals"}, nil)
	if err != nil {
		t.Fatalf("newRedisSender: %v", err)
	}
	defer sender.(*redisSender).Close()

	if err := sender.Send(ctx, Message{Level: LevelWarning, Text: "careful"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var body Message
		if err := json.Unmarshal([]byte(msg.Payload), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Level != LevelWarning || body.Text != "careful" {
			t.Fatalf("unexpected payload %+v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message received")
	}
}

func TestRedisSenderPingFailureIsConfigError(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	addr := s.Addr()
	s.Close()

	_, err = newRedisSender(context.Background(), Settings{RedisAddr: addr}, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != KindRedis {
		t.Fatalf("expected redis ConfigError, got %v", err)
	}
}
