package enumerate

import "log/slog"

const (
	// DefaultMaxSamples caps the fallback cross product.
	DefaultMaxSamples = 500
	// DefaultMaxGatekeepers is the number of gatekeepers kept after ranking.
	DefaultMaxGatekeepers = 3
	// DefaultMinControlled is the controlled-set size a gatekeeper needs.
	DefaultMinControlled = 2
)

// Option customises an Engine.
type Option func(*Engine)

// WithMaxSamples caps the fallback cross product; larger products are
// sampled uniformly.
func WithMaxSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSamples = n
		}
	}
}

// WithMaxGatekeepers sets how many ranked gatekeepers are used.
func WithMaxGatekeepers(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxGatekeepers = n
		}
	}
}

// WithMinControlled sets the smallest controlled set that qualifies a test
// variable as a gatekeeper.
func WithMinControlled(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minControlled = n
		}
	}
}

// WithSeed fixes the fallback sampler seed. Zero draws a fresh seed, which is
// reported in Result.Seed.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
