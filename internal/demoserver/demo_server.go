package demoserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/pagesnap/internal/logging"
)

const maxImage = 64

// DemoServer serves pages that exercise each capture heuristic.
type DemoServer struct {
	cfg      Config
	logger   logging.Logger
	pages    map[string]PageDefinition
	versions map[string]int // path -> current version
	mu       sync.RWMutex
	router   chi.Router
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.InitialVersion < 1 {
		cfg.InitialVersion = 1
	}

	pageMap := make(map[string]PageDefinition)
	versions := make(map[string]int)
	for _, p := range GetAllPages(cfg) {
		pageMap[p.Path] = p
		versions[p.Path] = cfg.InitialVersion
	}

	s := &DemoServer{
		cfg:      cfg,
		logger:   logger.With(logging.F("component", "demoserver")),
		pages:    pageMap,
		versions: versions,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	r := s.router
	for path := range s.pages {
		if path == "/slow" {
			r.Get(path, s.slowHandler(s.pageHandler(path)))
			continue
		}
		r.Get(path, s.pageHandler(path))
	}
	r.Get("/img/{n}.png", s.imageHandler)

	// Control panel for version switching
	r.Get("/demo/control", s.controlPanelHandler)
	r.Post("/demo/set-version", s.setVersionHandler)
	r.Get("/demo/get-versions", s.getVersionsHandler)
	r.Post("/demo/reset", s.resetVersionsHandler)
}

// Handler exposes the routes for embedding and tests.
func (s *DemoServer) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo server listening", logging.F("addr", "http://localhost"+srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// pageHandler returns a handler for a specific page path.
func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		pageDef, ok := s.pages[path]
		version := s.versions[path]
		s.mu.RUnlock()

		if !ok {
			http.NotFound(w, r)
			return
		}

		// Fall back to the closest lower version
		pageVersion, ok := pageDef.Versions[version]
		for v := version - 1; !ok && v >= 1; v-- {
			pageVersion, ok = pageDef.Versions[v]
		}

		for k, v := range pageVersion.Headers {
			w.Header().Set(k, v)
		}
		contentType := pageVersion.ContentType
		if contentType == "" {
			contentType = "text/html; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(pageVersion.HTML))
	}
}

func (s *DemoServer) slowHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(s.cfg.SlowDelay):
		case <-r.Context().Done():
			return
		}
		next(w, r)
	}
}

// imageHandler renders a solid tile whose colour depends on n.
func (s *DemoServer) imageHandler(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > maxImage {
		http.NotFound(w, r)
		return
	}

	buf, err := tile(n)
	if err != nil {
		s.logger.Error("encoding demo image", logging.F("n", n), logging.Err(err))
		http.Error(w, "image encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf)
}

func tile(n int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	c := color.RGBA{R: uint8(n * 37), G: uint8(n * 71), B: uint8(n * 113), A: 255}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// controlPanelHandler serves the control panel for version management.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := struct {
		Pages    map[string]PageDefinition
		Versions map[string]int
	}{
		Pages:    s.pages,
		Versions: s.versions,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := controlPanel.Execute(w, data); err != nil {
		s.logger.Warn("rendering control panel", logging.Err(err))
	}
}

// setVersionHandler sets the version for a specific page.
func (s *DemoServer) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	_, ok := s.pages[path]
	if ok {
		s.versions[path] = version
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Unknown page", http.StatusNotFound)
		return
	}

	s.logger.Info("page version set", logging.F("path", path), logging.F("version", version))
	writeJSON(w, map[string]any{"success": true, "path": path, "version": version})
}

// PageInfo describes a page for /demo/get-versions.
type PageInfo struct {
	Path              string `json:"path"`
	Description       string `json:"description"`
	CurrentVersion    int    `json:"current_version"`
	AvailableVersions []int  `json:"available_versions"`
}

// getVersionsHandler returns the current versions of all pages.
func (s *DemoServer) getVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	pages := make([]PageInfo, 0, len(s.pages))
	for path, pageDef := range s.pages {
		versions := make([]int, 0, len(pageDef.Versions))
		for v := range pageDef.Versions {
			versions = append(versions, v)
		}
		sort.Ints(versions)
		pages = append(pages, PageInfo{
			Path:              path,
			Description:       pageDef.Description,
			CurrentVersion:    s.versions[path],
			AvailableVersions: versions,
		})
	}
	s.mu.RUnlock()

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	writeJSON(w, pages)
}

// resetVersionsHandler resets all pages to version 1.
func (s *DemoServer) resetVersionsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for path := range s.versions {
		s.versions[path] = 1
	}
	s.mu.Unlock()

	writeJSON(w, map[string]any{"success": true, "message": "All versions reset to 1"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var controlPanel = template.Must(template.New("control").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Demo Server Control Panel</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; }
        .page-card { border: 1px solid #ddd; border-radius: 6px; padding: 12px; margin: 10px 0; }
        .current { font-weight: bold; color: #28a745; }
    </style>
</head>
<body>
    <h1>Demo Server Control Panel</h1>
    <p>Switch page versions, then capture the same URL again to see drift recorded in the catalog.</p>
    <button onclick="post('/demo/reset', '')">Reset all to v1</button>
    {{range $path, $page := .Pages}}
    <div class="page-card">
        <a href="{{$path}}" target="_blank">{{$path}}</a>
        <span class="current">v{{index $.Versions $path}}</span>
        <div>{{$page.Description}}</div>
        {{range $v, $_ := $page.Versions}}
        <button onclick="post('/demo/set-version', 'path={{$path}}&version={{$v}}')">v{{$v}}</button>
        {{end}}
    </div>
    {{end}}
    <script>
        function post(url, body) {
            fetch(url, {
                method: 'POST',
                headers: {'Content-Type': 'application/x-www-form-urlencoded'},
                body: body
            }).then(() => location.reload());
        }
    </script>
</body>
</html>`))
