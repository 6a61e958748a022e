// Package health probes the cache's backing store. A StoreChecker runs a
// set/get/delete round-trip against a cache.Store and classifies the
// result by correctness and latency, giving deployments a readiness signal
// for the cache layer without exposing any HTTP surface of its own.
package health
