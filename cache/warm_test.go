package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWarm_PopulatesAllSets(t *testing.T) {
	engine := NewEngine(NewMemoryStore())
	ctx := context.Background()

	sets := []Params{
		{"range": 7, "timezone": "UTC"},
		{"range": 30, "timezone": "UTC"},
		{"range": 7, "timezone": "Europe/Berlin"},
		{"range": 30, "timezone": "Europe/Berlin"},
	}

	results := Warm(ctx, engine, NamespaceMetric, "revenue", sets, Seconds(900),
		func(ctx context.Context, params Params) (string, error) {
			return fmt.Sprintf("%v@%v", params["range"], params["timezone"]), nil
		})

	if len(results) != len(sets) {
		t.Fatalf("Warm() returned %d results, want %d", len(results), len(sets))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("set %d failed: %v", i, r.Err)
		}
		if r.Outcome != OutcomeMiss {
			t.Errorf("set %d outcome = %v, want miss (cold cache)", i, r.Outcome)
		}
	}

	// Every warmed set is now a hit.
	for i, params := range sets {
		spec := KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: params}
		_, outcome, err := Remember(ctx, engine, spec, Seconds(900), func(ctx context.Context) (string, error) {
			return "recomputed", nil
		})
		if err != nil {
			t.Fatalf("Remember(set %d) error = %v", i, err)
		}
		if outcome != OutcomeHit {
			t.Errorf("set %d outcome after warming = %v, want hit", i, outcome)
		}
	}
}

func TestWarm_FailureIsolation(t *testing.T) {
	engine := NewEngine(NewMemoryStore())
	ctx := context.Background()

	sets := []Params{
		{"range": 7},
		{"range": 30},
		{"range": 90},
	}
	wantErr := errors.New("range not supported")

	results := Warm(ctx, engine, NamespaceMetric, "revenue", sets, Seconds(900),
		func(ctx context.Context, params Params) (int, error) {
			if params["range"] == 30 {
				return 0, wantErr
			}
			return params["range"].(int) * 10, nil
		})

	if len(results) != 3 {
		t.Fatalf("Warm() returned %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("sibling sets failed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, wantErr) {
		t.Errorf("failing set error = %v, want %v", results[1].Err, wantErr)
	}

	// The successes are retrievable as hits; the failure stored nothing.
	for _, tc := range []struct {
		rangeParam  int
		wantOutcome Outcome
	}{
		{7, OutcomeHit},
		{30, OutcomeMiss},
		{90, OutcomeHit},
	} {
		spec := KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"range": tc.rangeParam}}
		_, outcome, err := Remember(ctx, engine, spec, Seconds(900), func(ctx context.Context) (int, error) {
			return -1, nil
		})
		if err != nil {
			t.Fatalf("Remember(range=%d) error = %v", tc.rangeParam, err)
		}
		if outcome != tc.wantOutcome {
			t.Errorf("range=%d outcome = %v, want %v", tc.rangeParam, outcome, tc.wantOutcome)
		}
	}
}

func TestWarm_BoundedConcurrency(t *testing.T) {
	engine := NewEngine(NewMemoryStore())
	ctx := context.Background()

	var active, peak atomic.Int64
	var mu sync.Mutex

	sets := make([]Params, 16)
	for i := range sets {
		sets[i] = Params{"n": i}
	}

	Warm(ctx, engine, NamespaceMetric, "load", sets, Seconds(60),
		func(ctx context.Context, params Params) (int, error) {
			n := active.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return 0, nil
		},
		WithConcurrency(2))

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestWarm_CancelledContext(t *testing.T) {
	engine := NewEngine(NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sets := []Params{{"range": 7}, {"range": 30}}
	computed := atomic.Int64{}

	results := Warm(ctx, engine, NamespaceMetric, "revenue", sets, Seconds(900),
		func(ctx context.Context, params Params) (int, error) {
			computed.Add(1)
			return 1, nil
		})

	if len(results) != 2 {
		t.Fatalf("Warm() returned %d results, want 2", len(results))
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("set %d error = %v, want context.Canceled", i, r.Err)
		}
	}
	if n := computed.Load(); n != 0 {
		t.Errorf("compute ran %d times after cancellation, want 0", n)
	}
}
