package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/pagesnap/internal/app"
	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/catalog"
	"github.com/raysh454/pagesnap/internal/server"
	"github.com/raysh454/pagesnap/internal/testutil"
)

type harness struct {
	srv     *server.Server
	browser *testutil.FakeBrowser
	orch    *app.Orchestrator
}

func newHarness(t *testing.T, withCatalog bool) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := app.DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "shots")

	logger := &testutil.DummyLogger{}
	var cat *catalog.Catalog
	if withCatalog {
		var err error
		cat, err = catalog.Open(filepath.Join(dir, "catalog.db"), logger)
		if err != nil {
			t.Fatalf("catalog.Open: %v", err)
		}
	}
	fb := testutil.NewFakeBrowser()
	a := app.NewApplication(cfg, nil, logger, fb, testutil.NewFakeClock(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)), cat)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	srv, err := server.NewServer(server.Config{ListenAddr: ":0", Logger: logger}, a.Orch)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &harness{srv: srv, browser: fb, orch: a.Orch}
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.srv.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestNewServer_RequiresOrchestrator(t *testing.T) {
	t.Parallel()
	if _, err := server.NewServer(server.Config{}, nil); err == nil {
		t.Fatal("expected error for nil orchestrator")
	}
}

func TestHealthAndCORS(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)

	w := h.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[server.HealthResponse](t, w); got.Status != "ok" {
		t.Errorf("health = %+v", got)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}

	w = h.do(t, http.MethodOptions, "/captures", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestCapture_CreatesAndCatalogs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, true)

	w := h.do(t, http.MethodPost, "/captures", `{"url":"https://example.com/","wait_time":0}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	out := decode[app.Outcome](t, w)
	if out.Result == nil || out.Entry == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Result.Metadata.Metadata.Title != "Fake Page" {
		t.Errorf("title = %q", out.Result.Metadata.Metadata.Title)
	}

	id := out.Entry.ID
	w = h.do(t, http.MethodGet, "/captures/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if got := decode[catalog.Entry](t, w); got.ID != id {
		t.Errorf("entry id = %q, want %q", got.ID, id)
	}

	w = h.do(t, http.MethodGet, "/captures/"+id+"/screenshot", "")
	if w.Code != http.StatusOK {
		t.Fatalf("screenshot status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), testutil.OnePixelPNG()) {
		t.Errorf("screenshot bytes differ")
	}

	w = h.do(t, http.MethodGet, "/captures/"+id+"/metadata", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metadata status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"title": "Fake Page"`) {
		t.Errorf("metadata body = %s", w.Body.String())
	}

	w = h.do(t, http.MethodGet, "/captures?url=https://EXAMPLE.com", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := decode[[]catalog.Entry](t, w); len(got) != 1 || got[0].ID != id {
		t.Errorf("list = %+v", got)
	}

	w = h.do(t, http.MethodGet, "/captures/latest?url=https://example.com/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("latest status = %d", w.Code)
	}
	if got := decode[catalog.Entry](t, w); got.ID != id {
		t.Errorf("latest id = %q", got.ID)
	}
}

func TestCapture_BadRequests(t *testing.T) {
	t.Parallel()
	h := newHarness(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"url":`},
		{"empty url", `{"url":""}`},
		{"unsupported scheme", `{"url":"ftp://example.com/"}`},
		{"missing host", `{"url":"http:///path"}`},
		{"negative wait", `{"url":"https://example.com/","wait_time":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/captures", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if decode[server.ErrorResponse](t, w).Error == "" {
				t.Errorf("empty error message")
			}
		})
	}
	if n := len(h.browser.Navigations); n != 0 {
		t.Errorf("browser navigated %d times for invalid input", n)
	}
}

func TestCapture_ErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(*testutil.FakeBrowser)
		status int
	}{
		{
			name: "navigation timeout",
			setup: func(fb *testutil.FakeBrowser) {
				fb.NavigateErr = fmt.Errorf("waiting for body: %w", browser.ErrNavigationTimeout)
			},
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "screenshot failure",
			setup:  func(fb *testutil.FakeBrowser) { fb.ScreenshotErr = testutil.NewError("boom") },
			status: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, true)
			tt.setup(h.browser)

			w := h.do(t, http.MethodPost, "/captures", `{"url":"https://example.com/","wait_time":0}`)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, true)
		for _, path := range []string{"/captures/nope", "/captures/nope/screenshot", "/captures/latest?url=https://example.com/"} {
			if w := h.do(t, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
				t.Errorf("%s: status = %d, want 404", path, w.Code)
			}
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, false)
		for _, path := range []string{"/captures", "/captures/abc", "/captures/latest?url=https://example.com/"} {
			if w := h.do(t, http.MethodGet, path, ""); w.Code != http.StatusServiceUnavailable {
				t.Errorf("%s: status = %d, want 503", path, w.Code)
			}
		}
	})

	t.Run("bad query", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, true)
		for _, path := range []string{"/captures?limit=abc", "/captures?limit=0", "/captures/latest", "/captures?url=ftp://x/"} {
			if w := h.do(t, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", path, w.Code)
			}
		}
	})
}

func TestJobs_REST(t *testing.T) {
	t.Parallel()
	h := newHarness(t, true)

	w := h.do(t, http.MethodPost, "/jobs", `{"url":"https://example.com/","wait_time":0}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	job := decode[app.Job](t, w)
	if job.ID == "" {
		t.Fatal("missing job id")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		w = h.do(t, http.MethodGet, "/jobs/"+job.ID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("get job status = %d", w.Code)
		}
		got := decode[app.Job](t, w)
		if got.Status == app.JobDone {
			if got.Outcome == nil || got.Outcome.Entry == nil {
				t.Errorf("done job without outcome: %+v", got)
			}
			break
		}
		if got.Status == app.JobFailed || time.Now().After(deadline) {
			t.Fatalf("job did not finish: %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	w = h.do(t, http.MethodGet, "/jobs", "")
	if got := decode[[]app.Job](t, w); len(got) != 1 {
		t.Errorf("jobs = %+v", got)
	}

	if w = h.do(t, http.MethodGet, "/jobs/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d", w.Code)
	}
	if w = h.do(t, http.MethodDelete, "/jobs/"+job.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	if w = h.do(t, http.MethodPost, "/jobs", `{"url":"nope"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid job status = %d", w.Code)
	}
}

func TestCaptureWebSocket_StreamsEvents(t *testing.T) {
	t.Parallel()
	h := newHarness(t, true)
	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/captures?url=https://example.com/&wait_time=0"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var states []string
	var result *app.JobEvent
	for {
		var raw map[string]any
		if err := conn.ReadJSON(&raw); err != nil {
			break
		}
		switch raw["type"] {
		case string(app.JobEventState):
			states = append(states, fmt.Sprint(raw["state"]))
		case string(app.JobEventResult):
			b, _ := json.Marshal(raw)
			var ev app.JobEvent
			if err := json.Unmarshal(b, &ev); err != nil {
				t.Fatalf("decoding result event: %v", err)
			}
			result = &ev
		case string(app.JobEventError):
			t.Fatalf("unexpected error event: %v", raw)
		}
	}

	if result == nil || result.Outcome == nil || result.Outcome.Result == nil {
		t.Fatalf("no result event; states = %v", states)
	}
	if len(states) == 0 || states[0] != "navigating" || states[len(states)-1] != "done" {
		t.Errorf("states = %v", states)
	}
}

func TestCaptureWebSocket_RejectsBadInput(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)

	for _, target := range []string{"/ws/captures", "/ws/captures?url=https://example.com/&wait_time=x", "/ws/captures?url=https://example.com/&wait_time=-2"} {
		if w := h.do(t, http.MethodGet, target, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestSwaggerDoc(t *testing.T) {
	t.Parallel()
	h := newHarness(t, false)

	w := h.do(t, http.MethodGet, "/swagger/doc.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc := decode[map[string]any](t, w)
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatalf("doc has no paths: %s", w.Body.String())
	}
	for _, p := range []string{"/captures", "/captures/{id}", "/jobs", "/ws/captures"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("doc missing path %s", p)
		}
	}
}
