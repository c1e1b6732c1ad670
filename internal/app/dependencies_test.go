package app

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func TestNewLimiterParsesRate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store, err := NewLimiterStore(client)
	if err != nil {
		t.Fatalf("new limiter store: %v", err)
	}

	lim, err := NewLimiter(store, "30-M")
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if lim.Rate.Limit != 30 {
		t.Fatalf("unexpected limit %d", lim.Rate.Limit)
	}

	if _, err := NewLimiter(store, "not-a-rate"); err == nil {
		t.Fatal("expected error for malformed rate")
	}
}
