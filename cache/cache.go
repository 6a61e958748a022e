package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore      = errors.New("cache: store is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrEmptyIdentity = errors.New("cache: identity is empty")
	ErrNotEnumerable = errors.New("cache: store cannot enumerate keys")
)

// NoExpiry is the expiry instant for entries that never expire.
// Stores treat the zero time as "keep until explicitly removed".
var NoExpiry = time.Time{}

// Store is the interface to the backing key/value store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Expiry: a zero expiresAt means the entry never expires; enforcement of
//   non-zero expiry is the store's responsibility.
// - Errors: Get returns (nil, false, err) on failure so callers can
//   distinguish an outage from a plain miss.
type Store interface {
	// Get retrieves a stored value. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value until expiresAt, associating it with tags.
	Set(ctx context.Context, key string, value []byte, expiresAt time.Time, tags []string) error

	// Delete removes a stored value. Idempotent; reports whether a value
	// was actually removed.
	Delete(ctx context.Context, key string) (bool, error)
}

// PatternStore is implemented by stores with native glob-pattern deletion.
type PatternStore interface {
	// DeletePattern removes all keys matching the glob pattern and
	// returns how many were removed. A malformed pattern removes nothing.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// TagStore is implemented by stores that index entries by tag.
type TagStore interface {
	// DeleteTag removes all keys associated with the tag and returns how
	// many were removed.
	DeleteTag(ctx context.Context, tag string) (int, error)
}

// KeyInfo describes one stored key for usage reporting.
type KeyInfo struct {
	// Key is the full derived cache key.
	Key string

	// Size is the stored value size in bytes, best-effort.
	Size int64
}

// EnumerableStore is implemented by stores that can list their own keys.
// Pattern invalidation and usage breakdowns fall back to enumeration when
// the store lacks native pattern support.
type EnumerableStore interface {
	// Keys lists stored keys with the given prefix. An empty prefix lists
	// every key.
	Keys(ctx context.Context, prefix string) ([]KeyInfo, error)
}

// Outcome classifies how a remember call was served. It makes the engine's
// fail-open behavior observable: a DegradedMiss is caller-compatible with a
// plain miss but signals a store outage rather than a cold key.
type Outcome int

const (
	// OutcomeBypass means caching was disabled for the call; the
	// computation ran directly and neither a hit nor a miss was counted.
	OutcomeBypass Outcome = iota

	// OutcomeHit means the value was served from the store.
	OutcomeHit

	// OutcomeMiss means the value was computed and stored.
	OutcomeMiss

	// OutcomeDegradedMiss means the store read failed and the value was
	// computed fresh.
	OutcomeDegradedMiss
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeBypass:
		return "bypass"
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeDegradedMiss:
		return "degraded-miss"
	default:
		return "unknown"
	}
}

// ValidateKey checks if a key is valid for storage.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
