package health

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/dashcache/cache"
)

// StoreCheckerConfig configures a StoreChecker.
type StoreCheckerConfig struct {
	// Name identifies the checker. Default: "cache-store".
	Name string

	// Timeout bounds the whole probe. Default: 2 seconds.
	Timeout time.Duration

	// DegradedAfter is the probe latency above which a working store is
	// reported degraded. Default: 250ms.
	DegradedAfter time.Duration
}

// StoreChecker probes a cache.Store with a set/get/delete round-trip.
type StoreChecker struct {
	config StoreCheckerConfig
	store  cache.Store
	seq    atomic.Uint64
}

// NewStoreChecker creates a checker for the given store.
func NewStoreChecker(store cache.Store, config StoreCheckerConfig) *StoreChecker {
	if config.Name == "" {
		config.Name = "cache-store"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	if config.DegradedAfter <= 0 {
		config.DegradedAfter = 250 * time.Millisecond
	}
	return &StoreChecker{config: config, store: store}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return c.config.Name
}

// Check writes a short-lived probe entry, reads it back, and removes it.
// The probe key is unique per call so concurrent checks never collide.
func (c *StoreChecker) Check(ctx context.Context) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	key := "health:probe:" + strconv.FormatUint(c.seq.Add(1), 10)
	value := []byte(strconv.FormatInt(start.UnixNano(), 10))

	result := func(status Status, message string, err error) Result {
		return Result{
			Status:    status,
			Message:   message,
			Duration:  time.Since(start),
			Timestamp: start,
			Error:     err,
		}
	}

	if err := c.store.Set(ctx, key, value, start.Add(time.Minute), nil); err != nil {
		return result(StatusUnhealthy, "store write failed", err)
	}

	got, found, err := c.store.Get(ctx, key)
	if err != nil {
		return result(StatusUnhealthy, "store read failed", err)
	}
	if !found || !bytes.Equal(got, value) {
		return result(StatusUnhealthy, "store read returned wrong value",
			fmt.Errorf("health: probe mismatch for %s", key))
	}

	if _, err := c.store.Delete(ctx, key); err != nil {
		return result(StatusDegraded, "store delete failed", err)
	}

	if elapsed := time.Since(start); elapsed > c.config.DegradedAfter {
		return result(StatusDegraded, fmt.Sprintf("store round-trip took %s", elapsed), nil)
	}
	return result(StatusHealthy, "store round-trip ok", nil)
}

// Ensure StoreChecker implements Checker
var _ Checker = (*StoreChecker)(nil)
