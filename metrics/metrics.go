// Package metrics provides a Prometheus plugin for the sentinel engine.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/officegrid/sentinel"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/plugin"
	"github.com/officegrid/sentinel/token"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Plugin)(nil)
	_ plugin.AfterAuthorize   = (*Plugin)(nil)
	_ plugin.GrantActivated   = (*Plugin)(nil)
	_ plugin.GrantDeactivated = (*Plugin)(nil)
	_ plugin.TokenRedeemed    = (*Plugin)(nil)
)

// Plugin records authorization and entitlement metrics. Register it with
// sentinel.WithPlugin.
type Plugin struct {
	decisions    *prometheus.CounterVec
	evalDuration prometheus.Histogram
	grantEvents  *prometheus.CounterVec
}

// Option configures the metrics plugin.
type Option func(*config)

type config struct {
	registerer prometheus.Registerer
	namespace  string
}

// WithRegisterer sets the Prometheus registerer. Defaults to the global one.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) { c.registerer = r }
}

// WithNamespace sets the metric namespace. Defaults to "sentinel".
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// New creates the metrics plugin and registers its collectors.
func New(opts ...Option) *Plugin {
	cfg := &config{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "sentinel",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Plugin{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "decisions_total",
				Help:      "Authorization decisions by outcome and reason.",
			},
			[]string{"allowed", "reason"},
		),
		evalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.namespace,
				Name:      "decision_duration_seconds",
				Help:      "Authorization pipeline latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		grantEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.namespace,
				Name:      "grant_events_total",
				Help:      "Grant lifecycle events by type.",
			},
			[]string{"event"},
		),
	}
	cfg.registerer.MustRegister(p.decisions, p.evalDuration, p.grantEvents)
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "metrics" }

// OnAfterAuthorize counts the decision and observes its latency.
func (p *Plugin) OnAfterAuthorize(_ context.Context, _, decision any) error {
	d, ok := decision.(*sentinel.Decision)
	if !ok {
		return nil
	}
	allowed := "false"
	if d.Allowed {
		allowed = "true"
	}
	p.decisions.WithLabelValues(allowed, string(d.Reason)).Inc()
	p.evalDuration.Observe(time.Duration(d.EvalTimeNs).Seconds())
	return nil
}

// OnGrantActivated counts an activation.
func (p *Plugin) OnGrantActivated(_ context.Context, _ *grant.Grant) error {
	p.grantEvents.WithLabelValues("activated").Inc()
	return nil
}

// OnGrantDeactivated counts a deactivation.
func (p *Plugin) OnGrantDeactivated(_ context.Context, _ *grant.Grant) error {
	p.grantEvents.WithLabelValues("deactivated").Inc()
	return nil
}

// OnTokenRedeemed counts a token redemption.
func (p *Plugin) OnTokenRedeemed(_ context.Context, _ *token.Token, _ string) error {
	p.grantEvents.WithLabelValues("token_redeemed").Inc()
	return nil
}
