package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/concierge"
	"github.com/geocoder89/rfphub/internal/queue/redisclient"
	"github.com/google/uuid"
)

func TestConciergeHistory_Unreachable(t *testing.T) {
	client := redisclient.New(redisclient.Config{Addr: "127.0.0.1:1"})
	defer client.Close()

	h := NewConciergeHistory(client)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := h.List(ctx, "u1"); err == nil {
		t.Fatalf("expected an error from an unreachable redis")
	}
}

func TestConciergeHistory_Redis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	client := redisclient.New(redisclient.Config{Addr: addr})
	defer client.Close()

	h := NewConciergeHistory(client)
	ctx := context.Background()
	user := uuid.NewString()
	defer func() { _ = h.Clear(ctx, user) }()

	for i := 0; i < concierge.MaxHistory+3; i++ {
		if err := h.Append(ctx, user, concierge.Message{ID: uuid.NewString(), Message: "hi"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := h.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != concierge.MaxHistory {
		t.Fatalf("expected %d messages, got %d", concierge.MaxHistory, len(got))
	}

	ttl, err := client.Raw().TTL(ctx, concierge.HistoryKey(user)).Result()
	if err != nil || ttl <= 0 || ttl > concierge.HistoryTTL {
		t.Fatalf("unexpected ttl %s (%v)", ttl, err)
	}
}
