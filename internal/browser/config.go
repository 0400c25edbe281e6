package browser

import "time"

type Backend string

const (
	BackendChromedp Backend = "chromedp"
	BackendRod      Backend = "rod"
)

// Config selects and tunes a browser backend.
type Config struct {
	Backend Backend

	// Headless runs the browser without a window. Ignored with RemoteURL.
	Headless bool

	// RemoteURL attaches to an already running browser (DevTools HTTP or
	// WebSocket endpoint) instead of launching one.
	RemoteURL string

	// ExecPath overrides browser binary discovery.
	ExecPath string

	// Initial window size before the capture resizes to fit content.
	WindowWidth  int
	WindowHeight int

	// PageLoadTimeout bounds the load event wait inside Navigate. The body
	// wait has its own timeout passed by the caller.
	PageLoadTimeout time.Duration
}

// DefaultConfig is a headless chromedp browser with a 1920x1080 window.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendChromedp,
		Headless:        true,
		WindowWidth:     1920,
		WindowHeight:    1080,
		PageLoadTimeout: 60 * time.Second,
	}
}
