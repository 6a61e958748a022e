package cache

import (
	"context"
	"path"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store with tag, pattern, and enumeration
// support. Expired entries are cleaned up lazily on read; there is no
// background sweeper.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means never
	tags      []string
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
	}
}

// Get retrieves a value. Returns (nil, false, nil) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if entry.expired(time.Now()) {
		// Expired - clean up lazily
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value until expiresAt. A zero expiresAt keeps the entry
// until explicitly removed; an instant already in the past stores nothing.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, expiresAt time.Time, tags []string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if !expiresAt.IsZero() && !expiresAt.After(time.Now()) {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: expiresAt,
		tags:      slices.Clone(tags),
	}
	s.mu.Unlock()

	return nil
}

// Delete removes a value. Idempotent - reports whether an entry existed.
func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	return ok, nil
}

// DeletePattern removes all keys matching the glob pattern. A malformed
// pattern removes nothing.
func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if matched, _ := path.Match(pattern, key); matched {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// DeleteTag removes all keys associated with the tag.
func (s *MemoryStore) DeleteTag(_ context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if slices.Contains(entry.tags, tag) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Keys lists live keys with the given prefix.
func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]KeyInfo, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]KeyInfo, 0, len(s.entries))
	for key, entry := range s.entries {
		if entry.expired(now) || !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, KeyInfo{Key: key, Size: int64(len(entry.value))})
	}
	return infos, nil
}

// Len returns the number of entries currently held, including entries that
// expired but have not been cleaned up yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements every store capability
var (
	_ Store           = (*MemoryStore)(nil)
	_ PatternStore    = (*MemoryStore)(nil)
	_ TagStore        = (*MemoryStore)(nil)
	_ EnumerableStore = (*MemoryStore)(nil)
)
