package viewcache

import (
	"log/slog"

	"github.com/roach88/mapview/internal/bundle"
	"github.com/roach88/mapview/internal/metrics"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBundles sets the precompiled bundle registry. Without one, every
// container is synthesized.
func WithBundles(r *bundle.Registry) Option {
	return func(c *Coordinator) {
		c.bundles = r
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithMetrics sets the collectors requests are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}
