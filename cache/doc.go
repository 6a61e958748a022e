// Package cache memoizes expensive computed results behind a pluggable
// key/value store.
//
// It derives deterministic keys from an identity plus a parameter bag,
// normalizes flexible TTL specifications to absolute expiry instants,
// supports targeted, pattern and namespace invalidation, proactive warming
// across parameter combinations, and hit/miss instrumentation.
package cache
