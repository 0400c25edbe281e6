// Package capture sequences one full-page screenshot of a URL: navigate,
// coax lazy content into the DOM, wait for the page to settle, resize the
// viewport to the content and write a PNG plus JSON sidecar.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/clock"
	"github.com/raysh454/pagesnap/internal/logging"
)

// Result describes a successful capture.
type Result struct {
	ScreenshotPath string `json:"screenshot_path"`
	JSONPath       string `json:"json_path"`
	Stem           string `json:"stem"`

	Metadata Metadata `json:"metadata"`

	// Viewport used for the screenshot: the measured dimensions plus the
	// resize margin.
	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`

	ScrollPasses int           `json:"scroll_passes"`
	HeightStable bool          `json:"height_stable"`
	Quiescence   Quiescence    `json:"quiescence"`
	ExtraDelay   time.Duration `json:"extra_delay_ns"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// HTML is the rendered document at capture time; empty when it could
	// not be read.
	HTML string `json:"-"`
}

// Controller runs captures against one browser session. It is not safe for
// concurrent use; callers serialize captures.
type Controller struct {
	cfg     Config
	browser browser.Browser
	clock   clock.Clock
	logger  logging.Logger
}

// NewController wires a controller. A nil clock means the wall clock and a
// nil logger discards output.
func NewController(cfg Config, b browser.Browser, clk clock.Clock, logger logging.Logger) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		cfg:     cfg,
		browser: b,
		clock:   clk,
		logger:  logger.With(logging.F("component", "capture")),
	}
}

// Config returns the timings the controller runs with.
func (c *Controller) Config() Config { return c.cfg }

// Capture runs the full sequence for req.
func (c *Controller) Capture(ctx context.Context, req Request) (*Result, error) {
	return c.CaptureObserved(ctx, req, nil)
}

// run tracks the state of a single capture.
type run struct {
	c     *Controller
	obs   Observer
	state State
}

func (r *run) enter(s State) {
	r.state = s
	r.c.logger.Debug("capture state", logging.F("state", s.String()))
	if r.obs != nil {
		r.obs(Event{State: s, At: r.c.clock.Now()})
	}
}

func (r *run) fail(err error) error {
	failed := &Error{State: r.state, Err: err}
	r.state = StateFailed
	if r.obs != nil {
		r.obs(Event{State: StateFailed, At: r.c.clock.Now(), Error: failed.Error()})
	}
	return failed
}

// CaptureObserved is Capture with a transition observer.
func (c *Controller) CaptureObserved(ctx context.Context, req Request, obs Observer) (*Result, error) {
	r := &run{c: c, obs: obs, state: StateIdle}
	started := c.clock.Now()

	if err := req.Validate(); err != nil {
		c.logger.Error("Invalid capture request", logging.Err(err))
		return nil, r.fail(err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(fmt.Errorf("create output dir: %w", err))
	}

	c.logger.Info("Starting screenshot capture", logging.F("url", req.URL))

	r.enter(StateNavigating)
	if err := c.browser.Navigate(ctx, req.URL, c.cfg.NavigationTimeout); err != nil {
		if errors.Is(err, ErrNavigationTimeout) {
			c.logger.Error("Timeout while loading URL", logging.F("url", req.URL), logging.Err(err))
		} else {
			c.logger.Error("Error capturing screenshot", logging.F("url", req.URL), logging.Err(err))
		}
		return nil, r.fail(err)
	}

	res := &Result{StartedAt: started}

	r.enter(StateScrollingForLazyLoad)
	passes, err := c.progressiveScroll(ctx)
	res.ScrollPasses = passes
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.fail(ctx.Err())
		}
		c.logger.Warn("Progressive scroll failed, continuing", logging.Err(err))
	}

	r.enter(StateWaitingForStability)
	stable, err := c.waitForStableHeight(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.fail(ctx.Err())
		}
		c.logger.Warn("Height stability check failed, continuing", logging.Err(err))
		stable = false
	}
	if !stable {
		c.logger.Warn("Content height did not stabilize")
	}
	res.HeightStable = stable

	r.enter(StateWaitingForImages)
	if err := c.waitForImages(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, r.fail(ctx.Err())
		}
		c.logger.Warn("Timeout waiting for images to load", logging.Err(err))
	}

	r.enter(StateCheckingDynamicContent)
	q := c.checkQuiescence(ctx)
	if ctx.Err() != nil {
		return nil, r.fail(ctx.Err())
	}
	res.Quiescence = q

	if delay := c.extraDelay(req, stable, q); delay > 0 {
		c.logger.Info("Waiting additional time for content to stabilize", logging.F("seconds", delay.Seconds()))
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil, r.fail(err)
		}
		res.ExtraDelay = delay
	}

	r.enter(StateResizingViewport)
	width, height, err := c.measurePage(ctx)
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}
	res.ViewportWidth = width + c.cfg.ResizeMargin
	res.ViewportHeight = height + c.cfg.ResizeMargin
	if err := c.browser.SetViewport(ctx, res.ViewportWidth, res.ViewportHeight); err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(fmt.Errorf("resize viewport: %w", err))
	}
	if err := c.clock.Sleep(ctx, c.cfg.ResizeSettle); err != nil {
		return nil, r.fail(err)
	}

	r.enter(StateCapturing)
	png, err := c.browser.Screenshot(ctx)
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}
	info, err := c.browser.Info(ctx)
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}
	if html, err := c.browser.HTML(ctx); err == nil {
		res.HTML = html
	} else {
		c.logger.Debug("Could not read page html", logging.Err(err))
	}

	timestamp := c.clock.Now().Format(c.cfg.TimestampLayout)
	res.Metadata = Metadata{
		URL:        req.URL,
		Timestamp:  timestamp,
		Dimensions: Dimensions{Width: width, Height: height},
		Metadata: PageMetadata{
			Title:     info.Title,
			URL:       info.URL,
			UserAgent: info.UserAgent,
		},
	}
	data, err := res.Metadata.Encode()
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}

	res.Stem, err = reserveStem(req.OutputDir, c.cfg.FilePrefix+timestamp)
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}
	res.ScreenshotPath, res.JSONPath, err = writePair(req.OutputDir, res.Stem, png, data)
	if err != nil {
		c.logger.Error("Error capturing screenshot", logging.Err(err))
		return nil, r.fail(err)
	}
	res.Duration = clock.Since(c.clock, started)

	r.enter(StateDone)
	c.logger.Info("Screenshot and JSON data saved successfully",
		logging.F("stem", res.Stem),
		logging.F("width", width),
		logging.F("height", height))
	return res, nil
}

// extraDelay decides the fixed wait after the settle checks: an explicit
// wait time always wins, otherwise FallbackDelay applies only when the page
// did not look settled.
func (c *Controller) extraDelay(req Request, heightStable bool, q Quiescence) time.Duration {
	if req.WaitTime != nil {
		return *req.WaitTime
	}
	if !heightStable || q != QuiescenceStable {
		return c.cfg.FallbackDelay
	}
	return 0
}
