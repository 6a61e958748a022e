package cache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// defaultWarmConcurrency bounds parallel warming computations.
const defaultWarmConcurrency = 4

// WarmResult is the per-parameter-set outcome of a warming pass.
type WarmResult[T any] struct {
	// Params is the parameter set this result belongs to.
	Params Params

	// Value is the warmed value when Err is nil.
	Value T

	// Outcome classifies how the set was served. A hit means the entry
	// was already warm.
	Outcome Outcome

	// Err is the computation or cancellation error for this set, nil on
	// success.
	Err error
}

type warmConfig struct {
	concurrency int
}

// WarmOption configures a warming pass.
type WarmOption func(*warmConfig)

// WithConcurrency bounds how many parameter sets are computed in parallel.
// Default: 4.
func WithConcurrency(n int) WarmOption {
	return func(c *warmConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Warm pre-populates the cache for one identity across many parameter
// sets, trading background compute time for avoided foreground latency.
// Sets are independent: one set's failure never aborts the remaining sets,
// and results are returned in input order. Cancelling ctx stops dispatching
// new sets but lets already-issued computations complete, so no entry is
// left half-written.
func Warm[T any](ctx context.Context, e *Engine, ns Namespace, identity string, parameterSets []Params, ttl TTL, compute func(ctx context.Context, params Params) (T, error), opts ...WarmOption) []WarmResult[T] {
	cfg := warmConfig{concurrency: defaultWarmConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make([]WarmResult[T], len(parameterSets))

	// A plain group, not WithContext: sibling failures must not cancel
	// the remaining sets.
	var g errgroup.Group
	g.SetLimit(cfg.concurrency)

	for i, params := range parameterSets {
		results[i].Params = params

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			spec := KeySpec{Namespace: ns, Identity: identity, Params: params}
			value, outcome, err := Remember(ctx, e, spec, ttl, func(ctx context.Context) (T, error) {
				return compute(ctx, params)
			})
			results[i] = WarmResult[T]{Params: params, Value: value, Outcome: outcome, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
