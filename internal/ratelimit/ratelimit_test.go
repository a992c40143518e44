package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annexahq/annexa/internal/cache"
)

func testLimiter(limits map[string]int) (*Limiter, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	return New(store, limits), store
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 2})
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
		if !dec.Allowed {
			t.Fatalf("request %d should be allowed (count=%d limit=%d)", i+1, dec.Count, dec.Limit)
		}
		l.Record(ctx, dec)
	}

	dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
	if dec.Allowed {
		t.Fatalf("third request should be rejected (count=%d limit=%d)", dec.Count, dec.Limit)
	}
	if dec.Count != 2 {
		t.Fatalf("expected count 2 at rejection, got %d", dec.Count)
	}
}

func TestLimiter_RejectionDoesNotAdvanceCounter(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 1})
	defer store.Close()

	ctx := context.Background()
	dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
	l.Record(ctx, dec)

	// Repeated rejected checks must leave the counter untouched.
	for i := 0; i < 5; i++ {
		if dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree); dec.Allowed {
			t.Fatal("expected rejection")
		}
	}

	key := CounterKey("drafts", "1.2.3.4", l.now())
	if n := l.CurrentCount(ctx, key); n != 1 {
		t.Fatalf("counter advanced on rejection: got %d, want 1", n)
	}
}

func TestLimiter_TierCeilings(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 1, TierEdge: 3})
	defer store.Close()

	ctx := context.Background()
	dec := l.Allow(ctx, "drafts", "user:a", TierFree)
	l.Record(ctx, dec)

	if dec := l.Allow(ctx, "drafts", "user:a", TierFree); dec.Allowed {
		t.Fatal("free tier should be exhausted at 1")
	}
	// Same identity under the paid ceiling still has headroom.
	if dec := l.Allow(ctx, "drafts", "user:a", TierEdge); !dec.Allowed {
		t.Fatal("edge tier should still be allowed")
	}
}

func TestLimiter_DoesNotMutateCallerLimits(t *testing.T) {
	limits := map[string]int{TierEdge: 25}
	l := New(cache.NewMemoryStore(), limits)

	if _, ok := limits[TierFree]; ok {
		t.Fatal("New must not write defaults into the caller's map")
	}
	if l.limit(TierFree) != 3 {
		t.Fatalf("free default should still apply internally, got %d", l.limit(TierFree))
	}

	// Later caller-side writes must not leak into the limiter either.
	limits[TierEdge] = 1
	if l.limit(TierEdge) != 25 {
		t.Fatalf("limiter ceilings must be isolated from the caller's map, got %d", l.limit(TierEdge))
	}
}

func TestLimiter_UnknownTierFallsToFree(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 2})
	defer store.Close()

	dec := l.Allow(context.Background(), "drafts", "1.2.3.4", "platinum")
	if dec.Limit != 2 {
		t.Fatalf("unknown tier should use the free ceiling, got limit %d", dec.Limit)
	}
}

func TestLimiter_FeaturesAndIdentitiesIsolated(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 1})
	defer store.Close()

	ctx := context.Background()
	dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
	l.Record(ctx, dec)

	if dec := l.Allow(ctx, "radar", "1.2.3.4", TierFree); !dec.Allowed {
		t.Fatal("a different feature must have its own counter")
	}
	if dec := l.Allow(ctx, "drafts", "5.6.7.8", TierFree); !dec.Allowed {
		t.Fatal("a different identity must have its own counter")
	}
}

func TestLimiter_DayReset(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 1})
	defer store.Close()

	day1 := time.Date(2026, 8, 30, 15, 0, 0, 0, time.Local)
	l.now = func() time.Time { return day1 }

	ctx := context.Background()
	dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
	l.Record(ctx, dec)
	if dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree); dec.Allowed {
		t.Fatal("quota should be exhausted on day 1")
	}

	// The next day buckets under a fresh key, so the count restarts at zero.
	l.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	dec = l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
	if !dec.Allowed {
		t.Fatal("a new day should reset the quota")
	}
	if dec.Count != 0 {
		t.Fatalf("expected count 0 on the new day, got %d", dec.Count)
	}
}

func TestLimiter_ResetAtIsNextLocalMidnight(t *testing.T) {
	l, store := testLimiter(nil)
	defer store.Close()

	at := time.Date(2026, 8, 30, 23, 59, 0, 0, time.Local)
	l.now = func() time.Time { return at }

	dec := l.Allow(context.Background(), "drafts", "1.2.3.4", TierFree)
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	if !dec.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %v, got %v", want, dec.ResetAt)
	}
}

func TestLimiter_CounterKeyFormat(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	key := CounterKey("drafts", "1.2.3.4", at)
	if key != "rl:drafts:1.2.3.4:2026-08-30" {
		t.Fatalf("unexpected counter key: %s", key)
	}
}

// erroringStore fails every operation, standing in for an unreachable backend.
type erroringStore struct{}

func (erroringStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (erroringStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (erroringStore) Ping(context.Context) error { return errors.New("connection refused") }
func (erroringStore) Close() error               { return nil }

func TestLimiter_FailsOpen(t *testing.T) {
	l := New(erroringStore{}, map[string]int{TierFree: 1})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree)
		if !dec.Allowed {
			t.Fatal("an unreadable counter must count as zero")
		}
		// Record swallows the write failure.
		l.Record(ctx, dec)
	}
}

func TestLimiter_GarbageCounterCountsAsZero(t *testing.T) {
	l, store := testLimiter(map[string]int{TierFree: 1})
	defer store.Close()

	ctx := context.Background()
	key := CounterKey("drafts", "1.2.3.4", l.now())
	store.Set(ctx, key, []byte("not-a-number"), time.Minute)

	if n := l.CurrentCount(ctx, key); n != 0 {
		t.Fatalf("unparseable counter should read as 0, got %d", n)
	}
	if dec := l.Allow(ctx, "drafts", "1.2.3.4", TierFree); !dec.Allowed {
		t.Fatal("unparseable counter must not lock the identity out")
	}
}
