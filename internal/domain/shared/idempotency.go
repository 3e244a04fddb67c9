package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that a retried operator request
// (for example a publish) is not executed twice
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is present
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes the key so the request may run again
	Forget(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}
