package cache

import "time"

// Cache is a goroutine-safe key-value store with optional per-entry expiry.
// It backs the user directory (email lookups) and the in-memory token
// revocation list.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Set stores the value. If ttl <= 0, the entry does not expire.
	Set(key K, value V, ttl time.Duration)

	// SetUntil stores the value until the absolute time expiresAt.
	SetUntil(key K, value V, expiresAt time.Time)

	// Delete removes a key if present.
	Delete(key K)

	// Len returns the number of non-expired items currently stored.
	Len() int

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}
