package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the record store cannot be reached.
var ErrUnavailable = errors.New("record store unavailable")

// Store is the record store all services persist through. Values are JSON
// documents keyed by namespaced strings such as "conversation:<id>".
// A zero TTL means the record never expires.
//
// Lists keep newest entries first: Append pushes onto the head, so
// Range(key, 0, n-1) returns the n most recent values.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Append(ctx context.Context, key, value string) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
}
