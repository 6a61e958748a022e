package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/dashcache/cache"
)

// failingStore rejects every operation.
type failingStore struct{}

var errDown = errors.New("store down")

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errDown
}

func (failingStore) Set(ctx context.Context, key string, value []byte, expiresAt time.Time, tags []string) error {
	return errDown
}

func (failingStore) Delete(ctx context.Context, key string) (bool, error) {
	return false, errDown
}

func TestStoreChecker_Healthy(t *testing.T) {
	checker := NewStoreChecker(cache.NewMemoryStore(), StoreCheckerConfig{})

	if checker.Name() != "cache-store" {
		t.Errorf("Name() = %q, want cache-store", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check() = %v (%s), want healthy", result.Status, result.Message)
	}
	if result.Error != nil {
		t.Errorf("Check() error = %v", result.Error)
	}
	if result.Duration <= 0 {
		t.Errorf("Check() duration = %v, want > 0", result.Duration)
	}
}

func TestStoreChecker_Unhealthy(t *testing.T) {
	checker := NewStoreChecker(failingStore{}, StoreCheckerConfig{Name: "redis"})

	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Check() = %v, want unhealthy", result.Status)
	}
	if !errors.Is(result.Error, errDown) {
		t.Errorf("Check() error = %v, want %v", result.Error, errDown)
	}
}

func TestStoreChecker_DegradedOnSlowStore(t *testing.T) {
	slow := slowProbeStore{inner: cache.NewMemoryStore(), delay: 20 * time.Millisecond}
	checker := NewStoreChecker(slow, StoreCheckerConfig{DegradedAfter: time.Millisecond})

	result := checker.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Check() = %v (%s), want degraded", result.Status, result.Message)
	}
}

func TestStoreChecker_ProbesDoNotCollide(t *testing.T) {
	store := cache.NewMemoryStore()
	checker := NewStoreChecker(store, StoreCheckerConfig{})

	done := make(chan Result)
	for i := 0; i < 4; i++ {
		go func() { done <- checker.Check(context.Background()) }()
	}
	for i := 0; i < 4; i++ {
		if result := <-done; result.Status != StatusHealthy {
			t.Errorf("concurrent Check() = %v (%s)", result.Status, result.Message)
		}
	}
	if store.Len() != 0 {
		t.Errorf("probes left %d entries behind", store.Len())
	}
}

// slowProbeStore delays reads to trip the latency threshold.
type slowProbeStore struct {
	inner *cache.MemoryStore
	delay time.Duration
}

func (s slowProbeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	time.Sleep(s.delay)
	return s.inner.Get(ctx, key)
}

func (s slowProbeStore) Set(ctx context.Context, key string, value []byte, expiresAt time.Time, tags []string) error {
	return s.inner.Set(ctx, key, value, expiresAt, tags)
}

func (s slowProbeStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.inner.Delete(ctx, key)
}
