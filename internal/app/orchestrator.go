package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/pagesnap/internal/capture"
	"github.com/raysh454/pagesnap/internal/catalog"
	"github.com/raysh454/pagesnap/internal/logging"
)

// ErrCatalogDisabled is returned by catalog queries when no catalog is open.
var ErrCatalogDisabled = errors.New("capture catalog is disabled")

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventState  JobEventType = "state"
	JobEventResult JobEventType = "result"
	JobEventError  JobEventType = "error"
)

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`

	// For capture state transitions
	State capture.State `json:"state,omitempty"`
	At    time.Time     `json:"at,omitzero"`

	Error   string   `json:"error,omitempty"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Job is an asynchronous capture.
type Job struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
	Outcome   *Outcome  `json:"outcome,omitempty"`

	Events chan JobEvent `json:"-"`
}

// Outcome is a finished capture and, when the catalog is enabled, its entry.
type Outcome struct {
	Result *capture.Result `json:"result"`
	Entry  *catalog.Entry  `json:"entry,omitempty"`
}

// Orchestrator owns the capture controller and serializes access to its
// single browser session. Finished captures are recorded in the catalog.
type Orchestrator struct {
	cfg     *Config
	ctrl    *capture.Controller
	catalog *catalog.Catalog
	logger  logging.Logger

	// one browser page, one capture at a time
	captureMu sync.Mutex

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config, controller, catalog and logger. cat
// may be nil.
func NewOrchestrator(cfg *Config, ctrl *capture.Controller, cat *catalog.Catalog, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		cfg:        cfg,
		ctrl:       ctrl,
		catalog:    cat,
		logger:     logger,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

// NewRequest builds a capture request into the configured output directory.
func (o *Orchestrator) NewRequest(url string, wait *time.Duration) capture.Request {
	return capture.Request{URL: url, OutputDir: o.cfg.OutputDir, WaitTime: wait}
}

// Capture runs one capture synchronously.
func (o *Orchestrator) Capture(ctx context.Context, req capture.Request) (*Outcome, error) {
	return o.CaptureObserved(ctx, req, nil)
}

// CaptureObserved runs one capture, waiting for any capture already in
// progress. A catalog failure is logged and does not fail the capture: the
// files are already on disk.
func (o *Orchestrator) CaptureObserved(ctx context.Context, req capture.Request, obs capture.Observer) (*Outcome, error) {
	o.captureMu.Lock()
	defer o.captureMu.Unlock()

	res, err := o.ctrl.CaptureObserved(ctx, req, obs)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res}
	if o.catalog == nil {
		return out, nil
	}
	entry, err := o.catalog.Record(ctx, catalog.Input{
		URL:            req.URL,
		FinalURL:       res.Metadata.Metadata.URL,
		Title:          res.Metadata.Metadata.Title,
		Stem:           res.Stem,
		ScreenshotPath: res.ScreenshotPath,
		JSONPath:       res.JSONPath,
		Width:          res.Metadata.Dimensions.Width,
		Height:         res.Metadata.Dimensions.Height,
		HTML:           res.HTML,
		Duration:       res.Duration,
		CapturedAt:     res.StartedAt.Add(res.Duration),
	})
	if err != nil {
		o.logger.Warn("catalog: recording capture failed", logging.F("url", req.URL), logging.Err(err))
		return out, nil
	}
	out.Entry = entry
	return out, nil
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}
	ev.JobID = jobID

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(*Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

// StartCaptureJob queues a capture and returns immediately. Progress is
// delivered on job.Events, which is closed when the job ends.
func (o *Orchestrator) StartCaptureJob(ctx context.Context, req capture.Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		URL:       req.URL,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 32),
	}
	jobCtx, cancel := context.WithCancel(ctx)

	o.jobsMu.Lock()
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{Type: JobEventStatus, Status: JobPending})

	go o.runJob(jobCtx, jobID, req)
	return job, nil
}

func (o *Orchestrator) runJob(ctx context.Context, jobID string, req capture.Request) {
	defer func() {
		o.jobsMu.Lock()
		j := o.jobs[jobID]
		if cancel := o.jobCancels[jobID]; cancel != nil {
			cancel()
		}
		delete(o.jobCancels, jobID)
		if j != nil {
			j.EndedAt = time.Now().UTC()
		}
		o.pruneFinishedLocked()
		o.jobsMu.Unlock()

		// Close events channel so websocket loop can terminate cleanly
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(jobID, JobEvent{Type: JobEventStatus, Status: JobRunning})

	out, err := o.CaptureObserved(ctx, req, func(ev capture.Event) {
		o.emitJobEvent(jobID, JobEvent{Type: JobEventState, State: ev.State, At: ev.At, Error: ev.Error})
	})
	if err != nil {
		status := JobFailed
		if ctx.Err() != nil {
			status = JobCanceled
		}
		o.updateJob(jobID, func(j *Job) {
			j.Status = status
			j.Error = err.Error()
		})
		o.emitJobEvent(jobID, JobEvent{Type: JobEventError, Status: status, Error: err.Error()})
		o.logger.Warn("capture job failed", logging.F("job_id", jobID), logging.Err(err))
		return
	}

	o.updateJob(jobID, func(j *Job) {
		j.Status = JobDone
		j.Outcome = out
	})
	o.emitJobEvent(jobID, JobEvent{Type: JobEventResult, Status: JobDone, Outcome: out})
}

// pruneFinishedLocked drops the oldest finished jobs beyond
// cfg.MaxFinishedJobs. Callers hold jobsMu.
func (o *Orchestrator) pruneFinishedLocked() {
	limit := o.cfg.MaxFinishedJobs
	if limit <= 0 {
		return
	}
	var finished []*Job
	for _, j := range o.jobs {
		if !j.EndedAt.IsZero() {
			finished = append(finished, j)
		}
	}
	if len(finished) <= limit {
		return
	}
	sort.Slice(finished, func(a, b int) bool {
		if !finished[a].EndedAt.Equal(finished[b].EndedAt) {
			return finished[a].EndedAt.Before(finished[b].EndedAt)
		}
		return finished[a].StartedAt.Before(finished[b].StartedAt)
	})
	for _, j := range finished[:len(finished)-limit] {
		delete(o.jobs, j.ID)
	}
}

func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a copy of the job, or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// ListJobs returns copies of all jobs, oldest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	jobs := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		cp := *j
		jobs = append(jobs, &cp)
	}
	o.jobsMu.Unlock()

	sort.Slice(jobs, func(a, b int) bool { return jobs[a].StartedAt.Before(jobs[b].StartedAt) })
	return jobs
}

// Shutdown cancels running jobs and waits for the in-flight capture, if any,
// to observe the cancellation.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.jobsMu.Lock()
	for _, cancel := range o.jobCancels {
		cancel()
	}
	o.jobsMu.Unlock()

	done := make(chan struct{})
	go func() {
		o.captureMu.Lock()
		o.captureMu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) ListCaptures(ctx context.Context, f catalog.Filter) ([]*catalog.Entry, error) {
	if o.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return o.catalog.List(ctx, f)
}

func (o *Orchestrator) GetCapture(ctx context.Context, id string) (*catalog.Entry, error) {
	if o.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return o.catalog.Get(ctx, id)
}

func (o *Orchestrator) LatestCapture(ctx context.Context, url string) (*catalog.Entry, error) {
	if o.catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return o.catalog.Latest(ctx, url)
}
