package cache

import (
	"context"
	"path"
)

// Forget removes the single entry derived from spec. Idempotent: removing
// an absent key is a no-op and deletes is only counted when an entry was
// actually removed.
func (e *Engine) Forget(ctx context.Context, spec KeySpec) (bool, error) {
	if e.store == nil {
		return false, ErrNilStore
	}
	if spec.Identity == "" {
		return false, ErrEmptyIdentity
	}

	removed, err := e.store.Delete(ctx, e.keyer.Key(spec))
	if err != nil {
		return false, err
	}
	if removed {
		e.stats.RecordDeletes(ctx, 1)
	}
	return removed, nil
}

// ForgetPattern removes every entry whose derived key matches the glob
// pattern (path.Match syntax; ':' is an ordinary character). Matching is
// delegated to the store when it supports native pattern deletion, else
// performed by enumerating known keys. A store that can do neither, or a
// malformed pattern, removes zero keys rather than failing, so callers can
// treat all stores uniformly.
func (e *Engine) ForgetPattern(ctx context.Context, pattern string) (int, error) {
	if e.store == nil {
		return 0, ErrNilStore
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, nil
	}

	if ps, ok := e.store.(PatternStore); ok {
		n, err := ps.DeletePattern(ctx, pattern)
		if err != nil {
			return 0, err
		}
		e.stats.RecordDeletes(ctx, n)
		return n, nil
	}

	es, ok := e.store.(EnumerableStore)
	if !ok {
		return 0, nil
	}
	infos, err := es.Keys(ctx, "")
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range infos {
		matched, err := path.Match(pattern, info.Key)
		if err != nil || !matched {
			continue
		}
		ok, err := e.store.Delete(ctx, info.Key)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	e.stats.RecordDeletes(ctx, removed)
	return removed, nil
}

// ForgetNamespace removes every entry under a feature namespace, used for
// blanket resets. Prefers the store's tag index and falls back to pattern
// deletion on the namespace prefix.
func (e *Engine) ForgetNamespace(ctx context.Context, ns Namespace) (int, error) {
	if e.store == nil {
		return 0, ErrNilStore
	}

	if ts, ok := e.store.(TagStore); ok {
		n, err := ts.DeleteTag(ctx, namespaceTag(ns))
		if err != nil {
			return 0, err
		}
		e.stats.RecordDeletes(ctx, n)
		return n, nil
	}

	return e.ForgetPattern(ctx, namespaceTag(ns)+":*")
}
