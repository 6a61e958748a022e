package cache

import (
	"context"
	"time"
)

// defaultStoreTimeout bounds store calls when no timeout is configured.
const defaultStoreTimeout = 5 * time.Second

// TimeoutStore decorates a Store so every call runs under a deadline. A
// timed-out read surfaces as a store error, which the engine serves as a
// degraded miss; the cache layer therefore never blocks a caller for
// longer than the configured bound.
type TimeoutStore struct {
	next    Store
	timeout time.Duration
}

// NewTimeoutStore wraps next with a per-call timeout. A non-positive
// timeout uses the 5 second default.
func NewTimeoutStore(next Store, timeout time.Duration) *TimeoutStore {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &TimeoutStore{next: next, timeout: timeout}
}

func (s *TimeoutStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type getResult struct {
		value []byte
		found bool
		err   error
	}
	done := make(chan getResult, 1)
	go func() {
		value, found, err := s.next.Get(ctx, key)
		done <- getResult{value, found, err}
	}()

	select {
	case r := <-done:
		return r.value, r.found, r.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *TimeoutStore) Set(ctx context.Context, key string, value []byte, expiresAt time.Time, tags []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.next.Set(ctx, key, value, expiresAt, tags)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TimeoutStore) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type delResult struct {
		removed bool
		err     error
	}
	done := make(chan delResult, 1)
	go func() {
		removed, err := s.next.Delete(ctx, key)
		done <- delResult{removed, err}
	}()

	select {
	case r := <-done:
		return r.removed, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// DeletePattern forwards to the wrapped store when it supports pattern
// deletion, else removes nothing.
func (s *TimeoutStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	ps, ok := s.next.(PatternStore)
	if !ok {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return ps.DeletePattern(ctx, pattern)
}

// DeleteTag forwards to the wrapped store when it supports tag deletion,
// else removes nothing.
func (s *TimeoutStore) DeleteTag(ctx context.Context, tag string) (int, error) {
	ts, ok := s.next.(TagStore)
	if !ok {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return ts.DeleteTag(ctx, tag)
}

// Keys forwards to the wrapped store when it supports enumeration, else
// returns ErrNotEnumerable.
func (s *TimeoutStore) Keys(ctx context.Context, prefix string) ([]KeyInfo, error) {
	es, ok := s.next.(EnumerableStore)
	if !ok {
		return nil, ErrNotEnumerable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return es.Keys(ctx, prefix)
}

// Ensure TimeoutStore implements every store capability
var (
	_ Store           = (*TimeoutStore)(nil)
	_ PatternStore    = (*TimeoutStore)(nil)
	_ TagStore        = (*TimeoutStore)(nil)
	_ EnumerableStore = (*TimeoutStore)(nil)
)
