package sandbox

import "time"

// Config holds tunables for the execution engine.
type Config struct {
	// DefaultTimeout applies when the request carries no timeout.
	DefaultTimeout time.Duration
	// MaxTimeout caps the per-request timeout. Zero means uncapped.
	MaxTimeout time.Duration
	// MaxCallStackSize limits the VM call stack depth.
	MaxCallStackSize int
	// MaxStdoutBytes caps captured console output per invocation. Output past
	// the cap is dropped, not an error.
	MaxStdoutBytes int
	// FetchTimeout bounds a single outbound fetch made by user code.
	FetchTimeout time.Duration
}

// Option is a function that configures the engine
type Option func(*Config)

// WithDefaultTimeout sets the timeout used when a request carries none.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.DefaultTimeout = timeout
	}
}

// WithMaxTimeout caps per-request timeouts.
func WithMaxTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.MaxTimeout = timeout
	}
}

// WithMaxCallStackSize limits the VM call stack depth.
func WithMaxCallStackSize(size int) Option {
	return func(c *Config) {
		c.MaxCallStackSize = size
	}
}

// WithMaxStdoutBytes caps captured console output.
func WithMaxStdoutBytes(size int) Option {
	return func(c *Config) {
		c.MaxStdoutBytes = size
	}
}

// WithFetchTimeout bounds outbound fetches made by user code.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = timeout
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(c *Config) {
		if cfg != nil {
			*c = *cfg
		}
	}
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeout:   30 * time.Second,
		MaxTimeout:       5 * time.Minute,
		MaxCallStackSize: 2048,
		MaxStdoutBytes:   1 << 20,
		FetchTimeout:     30 * time.Second,
	}
}

// TestConfig returns a configuration with short budgets for tests.
func TestConfig() *Config {
	return &Config{
		DefaultTimeout:   5 * time.Second,
		MaxTimeout:       10 * time.Second,
		MaxCallStackSize: 512,
		MaxStdoutBytes:   1 << 16,
		FetchTimeout:     2 * time.Second,
	}
}
