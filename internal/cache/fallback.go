package cache

import (
	"context"
	"errors"
	"time"

	"github.com/annexahq/annexa/internal/logging"
)

// FallbackStore prefers a remote durable store and transparently falls back
// to an in-process map when the remote store is absent or failing. The
// remote binding is decided once at construction; a remote failure degrades
// only the current call — the next call tries the remote again. Caching is
// advisory: Set never surfaces remote errors to callers.
type FallbackStore struct {
	remote Store // nil when unconfigured; never re-bound
	local  *MemoryStore
}

// NewFallbackStore creates the tiered store. Passing a nil remote yields a
// store that is local-only for the process lifetime.
func NewFallbackStore(remote Store) *FallbackStore {
	return &FallbackStore{
		remote: remote,
		local:  NewMemoryStore(),
	}
}

// Remote reports whether a remote backend is bound.
func (f *FallbackStore) Remote() bool {
	return f.remote != nil
}

func (f *FallbackStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.remote != nil {
		val, err := f.remote.Get(ctx, key)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, ErrNotFound) {
			logging.Op().Warn("remote cache read failed, checking local fallback", "key", key, "error", err)
		}
		// Remote miss or error: fall through to the local map.
	}
	return f.local.Get(ctx, key)
}

func (f *FallbackStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.remote != nil {
		err := f.remote.Set(ctx, key, value, ttl)
		if err == nil {
			// Remote is the source of truth for this key now.
			return nil
		}
		logging.Op().Warn("remote cache write failed, writing local fallback", "key", key, "error", err)
	}
	return f.local.Set(ctx, key, value, ttl)
}

func (f *FallbackStore) Ping(ctx context.Context) error {
	if f.remote != nil {
		return f.remote.Ping(ctx)
	}
	return f.local.Ping(ctx)
}

func (f *FallbackStore) Close() error {
	_ = f.local.Close()
	if f.remote != nil {
		return f.remote.Close()
	}
	return nil
}
