package sentinel

import (
	"log/slog"

	"github.com/officegrid/sentinel/entitlement"
	"github.com/officegrid/sentinel/plugin"
	"github.com/officegrid/sentinel/registry"
	"github.com/officegrid/sentinel/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithRegistry sets the granular feature registry.
func WithRegistry(r *registry.Registry) Option { return func(e *Engine) { e.registry = r } }

// WithCache sets the grant cache used by the entitlement stage.
func WithCache(c entitlement.Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithClock sets the time source for entitlement expiry checks.
func WithClock(c entitlement.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(p)
	}
}
