package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/pagesnap/internal/utils"
)

// Request describes one capture. Treat it as immutable once built.
type Request struct {
	URL       string
	OutputDir string

	// WaitTime, when set, is always slept after the settle checks
	// regardless of what they concluded.
	WaitTime *time.Duration
}

// WaitSeconds converts an integer seconds value into a Request.WaitTime.
func WaitSeconds(n int) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

// Validate checks the request before any browser work starts.
func (r Request) Validate() error {
	if r.URL == "" {
		return errors.New("url is required")
	}
	if _, err := utils.ParseTarget(r.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if r.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if r.WaitTime != nil && *r.WaitTime < 0 {
		return fmt.Errorf("wait time must be non-negative, got %s", *r.WaitTime)
	}
	return nil
}
