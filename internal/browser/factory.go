package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/raysh454/pagesnap/internal/logging"
)

// BackendConstructor builds a Browser for the given config.
type BackendConstructor func(cfg Config, logger logging.Logger) (Browser, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally. Registering the same name again overwrites the previous one.
func RegisterBackend(name string, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewBrowser constructs the configured backend, defaulting to chromedp.
func NewBrowser(cfg Config, logger logging.Logger) (Browser, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))
	if backend == "" {
		backend = string(BackendChromedp)
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("browser backend %q not registered: available backends=%v", backend, ListBackends())
	}

	b, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser backend %q: %w", backend, err)
	}
	if b == nil {
		return nil, errors.New("browser constructor returned nil")
	}
	return b, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
