package browser

import (
	"fmt"

	"github.com/raysh454/pagesnap/internal/logging"
)

// RegisterDefaultBackends registers the chromedp and rod backends.
// Call this early in main() to make them available to NewBrowser.
func RegisterDefaultBackends() {
	RegisterBackend(string(BackendChromedp), func(cfg Config, logger logging.Logger) (Browser, error) {
		b, err := NewChromedpBrowser(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create chromedp browser: %w", err)
		}
		return b, nil
	})

	RegisterBackend(string(BackendRod), func(cfg Config, logger logging.Logger) (Browser, error) {
		b, err := NewRodBrowser(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create rod browser: %w", err)
		}
		return b, nil
	})
}
