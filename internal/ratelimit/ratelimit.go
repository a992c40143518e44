// Package ratelimit enforces "at most N accepted actions per identity per
// day", with N varying by caller-asserted tier. Counters live in the shared
// cache store under date-bucketed keys and expire at local midnight, so a
// new day implicitly starts every identity at zero.
//
// The check-then-increment sequence is deliberately not atomic: concurrent
// requests from the same identity can both read the same pre-increment count
// and both be accepted. This is an accepted soft limit — availability is
// prioritized over strict quota enforcement, and the limiter fails open when
// the store is unreachable.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/logging"
)

// TierFree is the lowest quota class; unknown or missing tiers map to it.
const TierFree = "free"

// TierEdge is the paid quota class.
const TierEdge = "edge"

// Limiter counts accepted actions per identity per feature per day.
type Limiter struct {
	store  cache.Store
	limits map[string]int // tier -> daily ceiling
	now    func() time.Time
}

// New creates a limiter over the given store. Tiers absent from limits
// fall back to the free ceiling. The map is copied; the caller's config
// stays untouched.
func New(store cache.Store, limits map[string]int) *Limiter {
	ceilings := make(map[string]int, len(limits)+1)
	for tier, n := range limits {
		ceilings[tier] = n
	}
	if _, ok := ceilings[TierFree]; !ok {
		ceilings[TierFree] = 3
	}
	return &Limiter{
		store:  store,
		limits: ceilings,
		now:    time.Now,
	}
}

// Decision is the outcome of a rate-limit check. Key and NextCount are
// carried so the caller can record the action after the guarded operation
// succeeds, and only then.
type Decision struct {
	Allowed   bool
	Count     int // accepted actions so far today, pre-increment
	Limit     int
	Key       string
	NextCount int
	ResetAt   time.Time // next local midnight
}

// Allow reads the current counter and decides without writing. Rejected
// requests must never advance the counter.
func (l *Limiter) Allow(ctx context.Context, feature, identity, tier string) Decision {
	now := l.now()
	key := CounterKey(feature, identity, now)
	count := l.CurrentCount(ctx, key)
	limit := l.limit(tier)
	return Decision{
		Allowed:   count < limit,
		Count:     count,
		Limit:     limit,
		Key:       key,
		NextCount: count + 1,
		ResetAt:   nextMidnight(now),
	}
}

// CurrentCount returns the counter value for key, treating absent, expired,
// or unreadable counters as zero. Never negative.
func (l *Limiter) CurrentCount(ctx context.Context, key string) int {
	val, err := l.store.Get(ctx, key)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(val))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Record persists the post-acceptance count with a TTL expiring at the same
// local midnight as every other counter created today. Store failures are
// logged and swallowed — quota bookkeeping never blocks traffic.
func (l *Limiter) Record(ctx context.Context, d Decision) {
	ttl := d.ResetAt.Sub(l.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := l.store.Set(ctx, d.Key, []byte(strconv.Itoa(d.NextCount)), ttl); err != nil {
		logging.Op().Warn("rate-limit counter write failed", "key", d.Key, "error", err)
	}
}

func (l *Limiter) limit(tier string) int {
	if n, ok := l.limits[tier]; ok {
		return n
	}
	return l.limits[TierFree]
}

// CounterKey buckets a counter by feature, identity, and local date.
func CounterKey(feature, identity string, t time.Time) string {
	return cache.NSRateLimit + feature + ":" + identity + ":" + t.Format("2006-01-02")
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
