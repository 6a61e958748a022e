// Package redisstore provides a Redis-backed store for the cache engine.
//
// Expiry is enforced natively by Redis TTLs, pattern invalidation uses
// SCAN with a glob match, and namespace tags are maintained as Redis sets
// so whole namespaces can be flushed without scanning the keyspace.
package redisstore
