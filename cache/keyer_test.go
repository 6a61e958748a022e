package cache

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultKeyer_DeterministicAcrossInsertionOrder(t *testing.T) {
	keyer := NewDefaultKeyer()

	// Same content, different construction order
	specs := []KeySpec{
		{Namespace: NamespaceMetric, Identity: "revenue-metric", Params: Params{"range": 30, "timezone": "UTC", "userId": 7}},
		{Namespace: NamespaceMetric, Identity: "revenue-metric", Params: Params{"timezone": "UTC", "userId": 7, "range": 30}},
		{Namespace: NamespaceMetric, Identity: "revenue-metric", Params: Params{"userId": 7, "range": 30, "timezone": "UTC"}},
	}

	first := keyer.Key(specs[0])
	for i, spec := range specs[1:] {
		if got := keyer.Key(spec); got != first {
			t.Errorf("spec %d derived %s, want %s", i+1, got, first)
		}
	}
}

func TestDefaultKeyer_Format(t *testing.T) {
	keyer := NewDefaultKeyer()

	key := keyer.Key(KeySpec{Namespace: NamespaceBadge, Identity: "open-tickets", Params: Params{"team": "core"}})

	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		t.Fatalf("key %q should have 3 colon-separated parts", key)
	}
	if parts[0] != "badge" {
		t.Errorf("namespace part = %q, want badge", parts[0])
	}
	if parts[1] != "open-tickets" {
		t.Errorf("identity part = %q, want open-tickets", parts[1])
	}
	if len(parts[2]) != 16 {
		t.Errorf("hash part %q should be 16 hex chars", parts[2])
	}
}

func TestDefaultKeyer_EmptyNamespaceDefaults(t *testing.T) {
	keyer := NewDefaultKeyer()

	key := keyer.Key(KeySpec{Identity: "thing"})
	if !strings.HasPrefix(key, "cache:") {
		t.Errorf("key %q should use the default namespace", key)
	}
}

func TestDefaultKeyer_NamespacesDoNotCollide(t *testing.T) {
	keyer := NewDefaultKeyer()

	metric := keyer.Key(KeySpec{Namespace: NamespaceMetric, Identity: "sales", Params: Params{"range": 7}})
	badge := keyer.Key(KeySpec{Namespace: NamespaceBadge, Identity: "sales", Params: Params{"range": 7}})

	if metric == badge {
		t.Errorf("same identity in different namespaces derived the same key %s", metric)
	}
}

func TestDefaultKeyer_DifferentInputsDiffer(t *testing.T) {
	keyer := NewDefaultKeyer()

	tests := []struct {
		name string
		a, b KeySpec
	}{
		{
			"different identities",
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue"},
			KeySpec{Namespace: NamespaceMetric, Identity: "orders"},
		},
		{
			"different values",
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"range": 30}},
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"range": 60}},
		},
		{
			"different names",
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"range": 30}},
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"window": 30}},
		},
		{
			"params vs no params",
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue"},
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"range": 30}},
		},
		{
			"bool vs int encoding",
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"all": true}},
			KeySpec{Namespace: NamespaceMetric, Identity: "revenue", Params: Params{"all": 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if keyer.Key(tt.a) == keyer.Key(tt.b) {
				t.Errorf("specs %+v and %+v derived the same key", tt.a, tt.b)
			}
		})
	}
}

func TestDefaultKeyer_ScalarEncodings(t *testing.T) {
	// Equivalent values of the same type must encode identically.
	keyer := NewDefaultKeyer()

	when := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	inNY := when.In(time.FixedZone("EST", -5*60*60))

	a := keyer.Key(KeySpec{Identity: "report", Params: Params{"at": when}})
	b := keyer.Key(KeySpec{Identity: "report", Params: Params{"at": inNY}})
	if a != b {
		t.Errorf("same instant in different locations derived different keys")
	}

	c := keyer.Key(KeySpec{Identity: "report", Params: Params{"n": int32(5)}})
	d := keyer.Key(KeySpec{Identity: "report", Params: Params{"n": int64(5)}})
	if c != d {
		t.Errorf("equal integers of different widths derived different keys")
	}
}

func TestHandle_ExplicitTagsAreStable(t *testing.T) {
	keyer := NewDefaultKeyer()

	a := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": NewHandle("open-count")}})
	b := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": NewHandle("open-count")}})
	if a != b {
		t.Errorf("handles with equal tags derived different keys")
	}

	c := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": NewHandle("closed-count")}})
	if a == c {
		t.Errorf("handles with different tags derived the same key")
	}
}

func TestAnonymousHandle_NeverCollides(t *testing.T) {
	// Separately constructed anonymous handles identify separately
	// constructed computations; logically identical ones are not
	// guaranteed to collide.
	keyer := NewDefaultKeyer()

	a := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": AnonymousHandle()}})
	b := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": AnonymousHandle()}})
	if a == b {
		t.Errorf("distinct anonymous handles derived the same key")
	}

	h := AnonymousHandle()
	c := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": h}})
	d := keyer.Key(KeySpec{Identity: "badge", Params: Params{"resolver": h}})
	if c != d {
		t.Errorf("the same anonymous handle derived different keys")
	}
}
