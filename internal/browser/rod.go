package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/raysh454/pagesnap/internal/logging"
)

// RodBrowser drives a single page through go-rod.
type RodBrowser struct {
	cfg    Config
	logger logging.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRodBrowser launches (or attaches to) a browser and opens a blank page.
func NewRodBrowser(cfg Config, logger logging.Logger) (*RodBrowser, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(BackendRod)})

	var (
		l          *launcher.Launcher
		controlURL string
		err        error
	)
	if cfg.RemoteURL != "" {
		controlURL, err = launcher.ResolveURL(cfg.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("resolve remote url: %w", err)
		}
	} else {
		l = launcher.New().
			Headless(cfg.Headless).
			NoSandbox(true).
			Set("disable-gpu").
			Set("disable-dev-shm-usage")
		if cfg.ExecPath != "" {
			l = l.Bin(cfg.ExecPath)
		}
		controlURL, err = l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	p, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("open page: %w", err)
	}

	rb := &RodBrowser{
		cfg:      cfg,
		logger:   componentLogger,
		launcher: l,
		browser:  b,
		page:     p,
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		if err := rb.SetViewport(context.Background(), cfg.WindowWidth, cfg.WindowHeight); err != nil {
			_ = rb.Close()
			return nil, fmt.Errorf("set initial viewport: %w", err)
		}
	}

	componentLogger.Debug("browser started", logging.Field{Key: "control_url", Value: controlURL})
	return rb, nil
}

func (r *RodBrowser) Navigate(ctx context.Context, rawURL string, timeout time.Duration) error {
	r.logger.Debug("navigating", logging.Field{Key: "url", Value: rawURL})

	loadTimeout := r.cfg.PageLoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = timeout
	}
	if err := r.page.Context(ctx).Timeout(loadTimeout).Navigate(rawURL); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: page load of %s exceeded %s", ErrNavigationTimeout, rawURL, loadTimeout)
		}
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	if _, err := r.page.Context(ctx).Timeout(timeout).Element("body"); err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: no body after %s", ErrNavigationTimeout, timeout)
		}
		return fmt.Errorf("wait for body: %w", err)
	}
	return nil
}

func (r *RodBrowser) Evaluate(ctx context.Context, script string, out any) error {
	res, err := proto.RuntimeEvaluate{
		Expression:    script,
		AwaitPromise:  true,
		ReturnByValue: true,
	}.Call(r.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if res.ExceptionDetails != nil {
		return fmt.Errorf("evaluate: %s", res.ExceptionDetails.Text)
	}
	if out == nil || res.Result == nil {
		return nil
	}
	raw, err := res.Result.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode evaluate result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode evaluate result: %w", err)
	}
	return nil
}

func (r *RodBrowser) SetViewport(ctx context.Context, width, height int) error {
	return r.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (r *RodBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := r.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:      proto.PageCaptureScreenshotFormatPng,
		FromSurface: true,
	})
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (r *RodBrowser) Info(ctx context.Context) (PageInfo, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return PageInfo{}, fmt.Errorf("read page info: %w", err)
	}
	var ua string
	if err := r.Evaluate(ctx, `navigator.userAgent`, &ua); err != nil {
		return PageInfo{}, fmt.Errorf("read user agent: %w", err)
	}
	return PageInfo{Title: info.Title, URL: info.URL, UserAgent: ua}, nil
}

func (r *RodBrowser) HTML(ctx context.Context) (string, error) {
	html, err := r.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read outer html: %w", err)
	}
	return html, nil
}

// Close shuts the page and browser down. Safe to call more than once.
func (r *RodBrowser) Close() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Cleanup()
	}
	r.browser = nil
	r.logger.Info("browser closed")
	return err
}
