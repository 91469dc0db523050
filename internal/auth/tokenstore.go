package auth

import "context"

// TokenStore is a process-wide, TTL-pruned key store backing three
// concerns: opaque single-use password-reset tokens, the scheduler's
// per-reservation reminder idempotency marker, and refresh-token
// rotation bookkeeping (each issued refresh token's jti, consumed
// exactly once on rotation).
type TokenStore interface {
	// Put stores value under key for the given TTL, overwriting any
	// existing entry.
	Put(ctx context.Context, key string, value string, ttlSeconds int) error
	// TakeOnce atomically fetches and deletes key, returning ok=false if
	// it was absent or already expired: the primitive a single-use
	// reset token needs.
	TakeOnce(ctx context.Context, key string) (value string, ok bool, err error)
	// SetIfAbsent stores key only if it does not already exist, returning
	// false without error if it did: the primitive sendReminders needs
	// to mark a reservation "reminded" exactly once.
	SetIfAbsent(ctx context.Context, key string, ttlSeconds int) (set bool, err error)
	Close() error
}
