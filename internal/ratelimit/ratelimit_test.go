package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if !l.Allow(context.Background(), "user:1") {
		t.Fatalf("expected nil limiter to allow")
	}
	if New(nil, "clock-in", 1, time.Minute) != nil {
		t.Fatalf("expected nil limiter without a client")
	}
}

func TestUnreachableRedisFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := New(client, "clock-in", 1, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow(context.Background(), "user:1") {
			t.Fatalf("attempt %d: expected request allowed while redis is down", i)
		}
	}
}
