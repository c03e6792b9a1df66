package repository

import (
	"context"
	"time"
)

// Locker is a distributed mutual-exclusion primitive. TryLock returns a
// release token; Unlock only releases while that token still owns the key, so
// an expired lock can never be freed by a later holder.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
