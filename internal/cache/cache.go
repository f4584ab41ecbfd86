package cache

import (
	"context"
	"time"
)

// Cache fronts the unscoped project lookups on the hot paths, the
// transcript flush and the suggestion model resolution, so they do not
// hit postgres on every call.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

func ProjectKey(id string) string { return "project:id:" + id }

// Noop serves deployments without redis: every read misses and writes
// succeed silently.
type Noop struct{}

func (Noop) GetJSON(ctx context.Context, key string, dst any) (bool, error) { return false, nil }

func (Noop) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error { return nil }

func (Noop) Del(ctx context.Context, keys ...string) error { return nil }
