// Package registry implements the in-memory granular feature registry.
//
// Capability owners register their gated operations at process start, keyed
// by (feature, operation). The registry is rebuilt identically on every boot:
// registration is deterministic and idempotent, and nothing here is persisted.
// There is deliberately no package-level instance — the composition root
// constructs one Registry and passes it to every consumer.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

var (
	// ErrNotRegistered is returned when no handler exists for a
	// (feature, operation) pair.
	ErrNotRegistered = errors.New("registry: feature operation not registered")

	// ErrNotCallable is returned when an entry exists but its handler
	// cannot be invoked.
	ErrNotCallable = errors.New("registry: handler not callable")
)

// HandlerFunc is an executable capability handle. Handlers own their argument
// contract; the registry only dispatches.
type HandlerFunc func(ctx context.Context, args ...any) (any, error)

// Entry describes one registered granular feature operation.
// Entries are immutable once inserted: re-registration replaces the entry
// wholesale so concurrent readers never observe a partial update.
type Entry struct {
	Feature     string
	Operation   string
	Description string
	handler     HandlerFunc
}

type key struct {
	feature   string
	operation string
}

// Registry maps (feature, operation) pairs to capability handlers.
// Invocation is on the hot path of every gated request, so reads take the
// shared lock; the rare mutations (startup registration, hot reload, tests)
// serialize on the exclusive lock.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]*Entry
	logger  *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[key]*Entry),
		logger:  logger,
	}
}

// Register upserts a handler for the (feature, operation) pair.
// Idempotent; last writer wins.
func (r *Registry) Register(feature, operation string, h HandlerFunc, description string) {
	k := key{feature, operation}
	e := &Entry{
		Feature:     feature,
		Operation:   operation,
		Description: description,
		handler:     h,
	}

	r.mu.Lock()
	_, replaced := r.entries[k]
	r.entries[k] = e
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("feature operation re-registered",
			slog.String("feature", feature),
			slog.String("operation", operation),
		)
	}
}

// IsRegistered reports whether a handler exists for the pair.
func (r *Registry) IsRegistered(feature, operation string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key{feature, operation}]
	return ok
}

// Invoke looks up and executes the handler for the pair.
// Fails with ErrNotRegistered when no entry exists and ErrNotCallable when
// the entry's handler is unusable; otherwise the handler's own result and
// error are propagated untouched.
func (r *Registry) Invoke(ctx context.Context, feature, operation string, args ...any) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[key{feature, operation}]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotRegistered
	}
	if e.handler == nil {
		return nil, ErrNotCallable
	}

	return e.handler(ctx, args...)
}

// Unregister removes the entry for the pair. Removing an absent pair is a
// no-op. Administrative/test use only.
func (r *Registry) Unregister(feature, operation string) {
	r.mu.Lock()
	delete(r.entries, key{feature, operation})
	r.mu.Unlock()
}

// Clear removes every entry. Administrative/test use only.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = make(map[key]*Entry)
	r.mu.Unlock()
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a sorted snapshot of all registered entries.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Feature != out[j].Feature {
			return out[i].Feature < out[j].Feature
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}
