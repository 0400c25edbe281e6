package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/pagesnap/internal/app"
	"github.com/raysh454/pagesnap/internal/capture"
	"github.com/raysh454/pagesnap/internal/catalog"
	"github.com/raysh454/pagesnap/internal/logging"
	_ "github.com/raysh454/pagesnap/internal/server/docs" // registers the OpenAPI document
	"github.com/raysh454/pagesnap/internal/utils"
)

// Server is the HTTP + WebSocket API surface for pagesnap.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer wires the routes around an existing orchestrator.
func NewServer(cfg Config, orch *app.Orchestrator) (*Server, error) {
	if orch == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger.With(logging.F("component", "server")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to configured origins once the service sits behind auth
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/captures", s.optionsHandler("GET, POST"))
	r.Options("/jobs", s.optionsHandler("GET, POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	r.Get("/healthz", s.handleHealth)

	// Captures
	r.Post("/captures", s.handleCapture)
	r.Get("/captures", s.handleListCaptures)
	r.Get("/captures/latest", s.handleLatestCapture)
	r.Get("/captures/{id}", s.handleGetCapture)
	r.Get("/captures/{id}/screenshot", s.handleGetScreenshot)
	r.Get("/captures/{id}/metadata", s.handleGetMetadata)

	// Jobs over REST
	r.Post("/jobs", s.handleStartJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for capture progress
	r.Get("/ws/captures", s.handleCaptureWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		logging.F("method", r.Method),
		logging.F("path", r.URL.Path),
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.F("query", q))
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.F("body", string(bodyBytes)))
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // captures and websockets run long
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// captureStatus maps a capture error onto an HTTP status.
func captureStatus(err error) int {
	switch {
	case errors.Is(err, capture.ErrNavigationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// catalogStatus maps a catalog lookup error onto an HTTP status.
func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrCatalogDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// buildRequest validates user input into a capture request.
func (s *Server) buildRequest(rawURL string, waitSeconds *int) (capture.Request, error) {
	if _, err := utils.ParseTarget(rawURL); err != nil {
		return capture.Request{}, err
	}
	var wait *time.Duration
	if waitSeconds != nil {
		if *waitSeconds < 0 {
			return capture.Request{}, fmt.Errorf("wait_time must be non-negative, got %d", *waitSeconds)
		}
		wait = capture.WaitSeconds(*waitSeconds)
	}
	return s.orchestrator.NewRequest(rawURL, wait), nil
}

func (s *Server) decodeCaptureRequest(r *http.Request) (capture.Request, error) {
	var body CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return capture.Request{}, errors.New("invalid JSON")
	}
	return s.buildRequest(body.URL, body.WaitTime)
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Captures

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCaptureRequest(r)
	if err != nil {
		s.logger.Warn("decoding capture request", logging.Err(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.orchestrator.Capture(r.Context(), req)
	if err != nil {
		s.logger.Warn("capture failed", logging.F("url", req.URL), logging.Err(err))
		writeError(w, captureStatus(err), err.Error())
		return
	}
	s.logger.Info("captured", logging.F("url", req.URL), logging.F("screenshot", out.Result.ScreenshotPath))
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	f := catalog.Filter{URL: r.URL.Query().Get("url")}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = v
	}

	entries, err := s.orchestrator.ListCaptures(r.Context(), f)
	if err != nil {
		status := catalogStatus(err)
		if errors.Is(err, utils.ErrUnsupportedScheme) || errors.Is(err, utils.ErrMissingHost) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("listing captures", logging.Err(err))
		writeError(w, status, err.Error())
		return
	}
	s.logger.Info("listed captures", logging.F("count", len(entries)))
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLatestCapture(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}
	e, err := s.orchestrator.LatestCapture(r.Context(), url)
	if err != nil {
		writeError(w, catalogStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*catalog.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, err := s.orchestrator.GetCapture(r.Context(), id)
	if err != nil {
		s.logger.Warn("getting capture", logging.F("id", id), logging.Err(err))
		writeError(w, catalogStatus(err), err.Error())
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, e)
	}
}

func (s *Server) handleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.lookup(w, r); ok {
		s.serveFile(w, r, e.ScreenshotPath, "image/png")
	}
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	if e, ok := s.lookup(w, r); ok {
		s.serveFile(w, r, e.JSONPath, "application/json")
	}
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("opening capture file", logging.F("path", path), logging.Err(err))
		writeError(w, http.StatusNotFound, "capture file missing")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Jobs (REST)

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCaptureRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.orchestrator.StartCaptureJob(context.Background(), req)
	if err != nil {
		s.logger.Warn("starting capture job", logging.Err(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("started capture job", logging.F("job_id", job.ID), logging.F("url", req.URL))
	writeJSON(w, http.StatusAccepted, s.orchestrator.GetJob(job.ID))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.F("job_id", jobID))
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.F("job_id", jobID))
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

func (s *Server) handleCaptureWS(w http.ResponseWriter, r *http.Request) {
	var wait *int
	if ws := r.URL.Query().Get("wait_time"); ws != "" {
		v, err := strconv.Atoi(ws)
		if err != nil {
			writeError(w, http.StatusBadRequest, "wait_time must be an integer")
			return
		}
		wait = &v
	}
	req, err := s.buildRequest(r.URL.Query().Get("url"), wait)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartCaptureJob(r.Context(), req)
	if err != nil {
		s.logger.Warn("starting capture job", logging.Err(err))
		_ = conn.WriteJSON(app.JobEvent{Type: app.JobEventError, Status: app.JobFailed, Error: err.Error()})
		return
	}
	s.logger.Info("started capture job", logging.F("job_id", job.ID), logging.F("url", req.URL))

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "capture finished"))
}
