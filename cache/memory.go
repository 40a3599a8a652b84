// Package cache provides grant cache implementations for the entitlement
// evaluator.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/officegrid/sentinel/entitlement"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
)

// Compile-time interface check.
var _ entitlement.Cache = (*Memory)(nil)

// Memory is an in-memory grant cache with TTL-based expiration.
//
// It caches grant rows, not verdicts: the evaluator re-checks ExpiresAt on
// every read, so a stale entry can only delay visibility of an activation
// or deactivation by at most the TTL, never extend an expired window.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	maxSize int
}

type memoryEntry struct {
	grant     *grant.Grant
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory grant cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*memoryEntry),
		ttl:     time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetGrant returns the cached grant for the (office, group) pair.
func (m *Memory) GetGrant(_ context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, bool) {
	key := grantKey(officeID, groupID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.grant, true
}

// SetGrant caches a grant row.
func (m *Memory) SetGrant(_ context.Context, g *grant.Grant) {
	if g == nil {
		return
	}
	key := grantKey(g.OfficeID, g.FeatureGroupID)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		if _, exists := m.entries[key]; !exists {
			m.evictOldestLocked()
		}
	}

	m.entries[key] = &memoryEntry{grant: g, expiresAt: time.Now().Add(m.ttl)}
}

// Invalidate removes the cached grant for the pair.
func (m *Memory) Invalidate(_ context.Context, officeID string, groupID id.FeatureGroupID) {
	m.mu.Lock()
	delete(m.entries, grantKey(officeID, groupID))
	m.mu.Unlock()
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]*memoryEntry)
	m.mu.Unlock()
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func grantKey(officeID string, groupID id.FeatureGroupID) string {
	return officeID + "|" + groupID.String()
}
