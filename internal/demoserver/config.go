package demoserver

import "time"

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// InitialVersion is the starting version for versioned pages (default: 1).
	InitialVersion int

	// SlowDelay is how long /slow holds the response.
	SlowDelay time.Duration

	// LazyImages is the number of images /lazy reveals while scrolling.
	LazyImages int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		InitialVersion: 1,
		SlowDelay:      3 * time.Second,
		LazyImages:     12,
	}
}
