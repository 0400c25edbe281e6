package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNavigationTimeout is returned by Navigate when the page does not reach a
// usable state (a <body> element present) within the allotted time.
var ErrNavigationTimeout = errors.New("navigation timed out")

// PageInfo is what the capture sidecar records about the loaded page.
type PageInfo struct {
	Title     string
	URL       string
	UserAgent string
}

// Browser is the slice of a headless browser session that the capture
// pipeline drives. One Browser owns one page; it is not safe for concurrent use.
type Browser interface {
	// Navigate loads rawURL and waits up to timeout for a body element.
	Navigate(ctx context.Context, rawURL string, timeout time.Duration) error

	// Evaluate runs a JavaScript expression in the page. Promises are awaited.
	// When out is non-nil the JSON result is decoded into it.
	Evaluate(ctx context.Context, script string, out any) error

	// SetViewport resizes the rendering surface in CSS pixels.
	SetViewport(ctx context.Context, width, height int) error

	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)

	Info(ctx context.Context) (PageInfo, error)

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)

	Close() error
}
