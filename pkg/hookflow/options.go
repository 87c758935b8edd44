package hookflow

import (
	"github.com/randalmurphal/hookflow/pkg/hookflow/config"
)

// dispatcherConfig holds configuration for a dispatcher instance.
type dispatcherConfig struct {
	queueSize      int
	maxSteps       int
	metricsEnabled bool
	tracingEnabled bool
}

// defaultDispatcherConfig returns the default dispatcher configuration.
func defaultDispatcherConfig() dispatcherConfig {
	return dispatcherConfig{
		queueSize: 64,
	}
}

// DispatcherOption configures dispatcher behavior.
type DispatcherOption func(*dispatcherConfig)

// WithQueueSize sets the capacity of the dispatch queue.
// Default: 64
//
// Dispatch() returns ErrQueueFull when the queue is at capacity rather
// than blocking the producer.
func WithQueueSize(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithMaxSteps sets the maximum number of steps per async hook run.
// Default: 1000
//
// This prevents a decision function that never returns Done from
// hanging a run forever. Exceeding the limit fails the hook with
// ErrMaxSteps.
func WithMaxSteps(n int) DispatcherOption {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for hook executions,
// dispatch runs, and state saves. Default: disabled.
func WithMetrics(enabled bool) DispatcherOption {
	return func(c *dispatcherConfig) {
		c.metricsEnabled = enabled
	}
}

// WithTracing enables OpenTelemetry spans around dispatch runs and
// individual hook executions. Default: disabled.
func WithTracing(enabled bool) DispatcherOption {
	return func(c *dispatcherConfig) {
		c.tracingEnabled = enabled
	}
}

// OptionsFromConfig maps a configuration section to dispatcher options.
//
// Recognized keys:
//
//	queue_size: int
//	max_steps:  int
//	metrics:    bool
//	tracing:    bool
//
// Example:
//
//	cfg, err := config.FromFile("hookflow.yaml")
//	d := hookflow.NewDispatcher(hookflow.OptionsFromConfig(cfg.Sub("dispatcher"))...)
func OptionsFromConfig(cfg config.Config) []DispatcherOption {
	var opts []DispatcherOption
	if cfg.Has("queue_size") {
		opts = append(opts, WithQueueSize(cfg.Int("queue_size", 0)))
	}
	if cfg.Has("max_steps") {
		opts = append(opts, WithMaxSteps(cfg.Int("max_steps", 0)))
	}
	if cfg.Has("metrics") {
		opts = append(opts, WithMetrics(cfg.Bool("metrics", false)))
	}
	if cfg.Has("tracing") {
		opts = append(opts, WithTracing(cfg.Bool("tracing", false)))
	}
	return opts
}
