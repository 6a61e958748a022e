package cache

import (
	"context"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats counts cache operations for one engine. Counters are process-local
// and in-memory; in a multi-process deployment aggregate stats must be
// summed externally.
type Stats struct {
	hits     atomic.Int64
	misses   atomic.Int64
	degraded atomic.Int64
	writes   atomic.Int64
	deletes  atomic.Int64

	// Optional OpenTelemetry mirrors. Nil when no meter is configured.
	hitCount    metric.Int64Counter
	missCount   metric.Int64Counter
	writeCount  metric.Int64Counter
	deleteCount metric.Int64Counter
}

// StatsOption configures a Stats collector.
type StatsOption func(*Stats)

// WithMeter mirrors the counters to OpenTelemetry instruments on the given
// meter. Instrument creation failures are ignored; the in-memory counters
// keep working regardless.
func WithMeter(meter metric.Meter) StatsOption {
	return func(s *Stats) {
		s.hitCount, _ = meter.Int64Counter(
			"cache.lookup.hits",
			metric.WithDescription("Cache lookups served from the store"),
			metric.WithUnit("{lookup}"),
		)
		s.missCount, _ = meter.Int64Counter(
			"cache.lookup.misses",
			metric.WithDescription("Cache lookups that computed a fresh value"),
			metric.WithUnit("{lookup}"),
		)
		s.writeCount, _ = meter.Int64Counter(
			"cache.writes",
			metric.WithDescription("Values written to the store"),
			metric.WithUnit("{write}"),
		)
		s.deleteCount, _ = meter.Int64Counter(
			"cache.deletes",
			metric.WithDescription("Keys removed from the store"),
			metric.WithUnit("{key}"),
		)
	}
}

// NewStats creates a stats collector.
func NewStats(opts ...StatsOption) *Stats {
	s := &Stats{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordHit counts a lookup served from the store.
func (s *Stats) RecordHit(ctx context.Context, ns Namespace) {
	s.hits.Add(1)
	if s.hitCount != nil {
		s.hitCount.Add(ctx, 1, metric.WithAttributes(namespaceAttr(ns)))
	}
}

// RecordMiss counts a lookup that computed a fresh value. degraded marks
// misses caused by a store read failure rather than a cold key.
func (s *Stats) RecordMiss(ctx context.Context, ns Namespace, degraded bool) {
	s.misses.Add(1)
	if degraded {
		s.degraded.Add(1)
	}
	if s.missCount != nil {
		s.missCount.Add(ctx, 1, metric.WithAttributes(
			namespaceAttr(ns),
			attribute.Bool("cache.degraded", degraded),
		))
	}
}

// RecordWrite counts a value written to the store.
func (s *Stats) RecordWrite(ctx context.Context, ns Namespace) {
	s.writes.Add(1)
	if s.writeCount != nil {
		s.writeCount.Add(ctx, 1, metric.WithAttributes(namespaceAttr(ns)))
	}
}

// RecordDeletes counts n keys actually removed from the store.
func (s *Stats) RecordDeletes(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	s.deletes.Add(int64(n))
	if s.deleteCount != nil {
		s.deleteCount.Add(ctx, int64(n))
	}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	// Hits is the number of lookups served from the store.
	Hits int64

	// Misses is the number of lookups that computed a fresh value,
	// including degraded misses.
	Misses int64

	// DegradedMisses is the subset of misses caused by store read
	// failures.
	DegradedMisses int64

	// Writes is the number of values written to the store.
	Writes int64

	// Deletes is the number of keys removed from the store.
	Deletes int64

	// TotalOperations is the sum of all counters above except
	// DegradedMisses.
	TotalOperations int64

	// HitRatio is Hits / (Hits + Misses), 0 when there were no lookups.
	HitRatio float64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		DegradedMisses: s.degraded.Load(),
		Writes:         s.writes.Load(),
		Deletes:        s.deletes.Load(),
	}
	snap.TotalOperations = snap.Hits + snap.Misses + snap.Writes + snap.Deletes
	if lookups := snap.Hits + snap.Misses; lookups > 0 {
		snap.HitRatio = float64(snap.Hits) / float64(lookups)
	}
	return snap
}

// Reset zeroes the in-memory counters. The OpenTelemetry mirrors are
// monotonic and are not reset.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.degraded.Store(0)
	s.writes.Store(0)
	s.deletes.Store(0)
}

func namespaceAttr(ns Namespace) attribute.KeyValue {
	if ns == "" {
		ns = "cache"
	}
	return attribute.String("cache.namespace", string(ns))
}

// NamespaceUsage summarizes the stored footprint of one namespace.
type NamespaceUsage struct {
	// Keys is the number of stored keys.
	Keys int

	// Bytes is the total stored value size, best-effort.
	Bytes int64
}

// Usage breaks down key counts and sizes by namespace. Requires a store
// that can enumerate its own keys; otherwise ErrNotEnumerable is returned
// and the breakdown is reported as unavailable rather than guessed.
func (e *Engine) Usage(ctx context.Context) (map[Namespace]NamespaceUsage, error) {
	es, ok := e.store.(EnumerableStore)
	if !ok {
		return nil, ErrNotEnumerable
	}

	infos, err := es.Keys(ctx, "")
	if err != nil {
		return nil, err
	}

	usage := make(map[Namespace]NamespaceUsage)
	for _, info := range infos {
		ns := Namespace("cache")
		if i := strings.IndexByte(info.Key, ':'); i > 0 {
			ns = Namespace(info.Key[:i])
		}
		u := usage[ns]
		u.Keys++
		u.Bytes += info.Size
		usage[ns] = u
	}
	return usage, nil
}
