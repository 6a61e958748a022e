package cache

import (
	"context"
	"encoding/json"
	"time"
)

// SkipRule decides whether caching should be bypassed for a spec.
// Returns true to run the computation directly without touching the store.
type SkipRule func(spec KeySpec) bool

// Engine memoizes computations behind a Store.
//
// Contract:
// - Concurrency: safe for concurrent use; the read-then-maybe-write
//   sequence is deliberately not serialized around the computation, so
//   concurrent callers missing on the same key may both compute and both
//   write (last write wins). Computations are assumed idempotent.
// - Errors: computation errors propagate unchanged and are never cached.
//   A store read failure is served as a degraded miss and a store write
//   failure is swallowed; the cache is an optimization, never a
//   correctness dependency.
type Engine struct {
	store Store
	keyer Keyer
	stats *Stats
	skip  SkipRule
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyer sets the key derivation strategy.
func WithKeyer(k Keyer) Option {
	return func(e *Engine) { e.keyer = k }
}

// WithStats sets the stats collector. Injected rather than global so tests
// and multi-tenant deployments can count in isolation.
func WithStats(s *Stats) Option {
	return func(e *Engine) { e.stats = s }
}

// WithSkipRule sets a rule that bypasses caching for matching specs.
func WithSkipRule(rule SkipRule) Option {
	return func(e *Engine) { e.skip = rule }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine backed by the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		keyer: NewDefaultKeyer(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.stats == nil {
		e.stats = NewStats()
	}
	return e
}

// Stats returns the engine's stats collector.
func (e *Engine) Stats() *Stats {
	return e.stats
}

// envelope wraps every stored value with the instant it was cached,
// enabling freshness checks without a separate bookkeeping entry.
type envelope struct {
	Value    []byte `json:"v"`
	CachedAt int64  `json:"at"` // unix nanoseconds
}

// RememberBytes memoizes a raw computation. On a hit it returns the stored
// bytes without invoking compute; on a miss it computes, stores the result
// with the normalized expiry, and returns it. A disabled TTL or a matching
// skip rule bypasses the store entirely and counts neither hit nor miss.
func (e *Engine) RememberBytes(ctx context.Context, spec KeySpec, ttl TTL, compute func(ctx context.Context) ([]byte, error)) ([]byte, Outcome, error) {
	if e.store == nil {
		return nil, OutcomeBypass, ErrNilStore
	}
	if spec.Identity == "" {
		return nil, OutcomeBypass, ErrEmptyIdentity
	}

	expiresAt, cacheable := ttl.Expiry(e.now())
	if !cacheable || (e.skip != nil && e.skip(spec)) {
		v, err := compute(ctx)
		return v, OutcomeBypass, err
	}

	key := e.keyer.Key(spec)
	outcome := OutcomeMiss

	raw, found, err := e.store.Get(ctx, key)
	if err != nil {
		// Store outage reads as a miss: always prefer computing fresh
		// data over surfacing a cache failure to the caller.
		outcome = OutcomeDegradedMiss
	} else if found {
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			e.stats.RecordHit(ctx, spec.Namespace)
			return env.Value, OutcomeHit, nil
		}
		// Undecodable entry: recompute and overwrite.
	}
	e.stats.RecordMiss(ctx, spec.Namespace, outcome == OutcomeDegradedMiss)

	value, err := compute(ctx)
	if err != nil {
		// Never cache failures.
		return nil, outcome, err
	}

	data, err := json.Marshal(envelope{Value: value, CachedAt: e.now().UnixNano()})
	if err == nil {
		if err := e.store.Set(ctx, key, data, expiresAt, []string{namespaceTag(spec.Namespace)}); err == nil {
			e.stats.RecordWrite(ctx, spec.Namespace)
		}
		// Write failures are swallowed; the fresh value still serves
		// the caller.
	}

	return value, outcome, nil
}

// CachedAt reports when the entry for spec was written. Returns false when
// no entry exists or the store cannot be read.
func (e *Engine) CachedAt(ctx context.Context, spec KeySpec) (time.Time, bool) {
	if e.store == nil || spec.Identity == "" {
		return time.Time{}, false
	}
	raw, found, err := e.store.Get(ctx, e.keyer.Key(spec))
	if err != nil || !found {
		return time.Time{}, false
	}
	var env envelope
	if json.Unmarshal(raw, &env) != nil {
		return time.Time{}, false
	}
	return time.Unix(0, env.CachedAt), true
}

// IsFresh reports whether the cached entry for spec was written at or
// after the reference instant. Supports "don't use a cached result older
// than the underlying data" checks without an invalidation round-trip.
func (e *Engine) IsFresh(ctx context.Context, spec KeySpec, reference time.Time) bool {
	cachedAt, ok := e.CachedAt(ctx, spec)
	return ok && !cachedAt.Before(reference)
}

// namespaceTag returns the store tag for a namespace.
func namespaceTag(ns Namespace) string {
	if ns == "" {
		ns = "cache"
	}
	return string(ns)
}

// Remember memoizes a typed computation via JSON round-tripping. On a hit
// the stored value is decoded into T; on a miss the computed value is
// returned as-is and stored encoded.
func Remember[T any](ctx context.Context, e *Engine, spec KeySpec, ttl TTL, compute func(ctx context.Context) (T, error)) (T, Outcome, error) {
	var (
		computed T
		ran      bool
	)

	raw, outcome, err := e.RememberBytes(ctx, spec, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		computed = v
		ran = true
		return json.Marshal(v)
	})
	if err != nil {
		var zero T
		return zero, outcome, err
	}
	if ran {
		return computed, outcome, nil
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, outcome, err
	}
	return value, outcome, nil
}

// RememberForever memoizes a typed computation with no expiry. The entry
// is kept until explicitly invalidated.
func RememberForever[T any](ctx context.Context, e *Engine, spec KeySpec, compute func(ctx context.Context) (T, error)) (T, Outcome, error) {
	return Remember(ctx, e, spec, Forever(), compute)
}
