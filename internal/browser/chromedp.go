package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/pagesnap/internal/logging"
)

// ChromedpBrowser drives a single Chrome tab through chromedp.
type ChromedpBrowser struct {
	cfg    Config
	logger logging.Logger

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewChromedpBrowser launches (or attaches to) Chrome and opens one tab.
// The browser is started eagerly so a missing binary surfaces here rather
// than on the first navigation.
func NewChromedpBrowser(cfg Config, logger logging.Logger) (*ChromedpBrowser, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(BackendChromedp)})

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.DisableGPU,
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-first-run", true),
		)
		if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
			opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
		}
		if cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	b := &ChromedpBrowser{
		cfg:         cfg,
		logger:      componentLogger,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		if err := b.SetViewport(context.Background(), cfg.WindowWidth, cfg.WindowHeight); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("set initial viewport: %w", err)
		}
	}

	componentLogger.Debug("chrome started",
		logging.Field{Key: "remote", Value: cfg.RemoteURL != ""},
		logging.Field{Key: "headless", Value: cfg.Headless})
	return b, nil
}

// run executes actions on the tab, aborting when the caller's ctx is done.
// A positive timeout additionally bounds the actions.
func (b *ChromedpBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *ChromedpBrowser) Navigate(ctx context.Context, rawURL string, timeout time.Duration) error {
	b.logger.Debug("navigating", logging.Field{Key: "url", Value: rawURL})

	err := b.run(ctx, b.cfg.PageLoadTimeout, chromedp.Navigate(rawURL))
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: page load of %s exceeded %s", ErrNavigationTimeout, rawURL, b.cfg.PageLoadTimeout)
		}
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	err = b.run(ctx, timeout, chromedp.WaitReady("body", chromedp.ByQuery))
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: no body after %s", ErrNavigationTimeout, timeout)
		}
		return fmt.Errorf("wait for body: %w", err)
	}
	return nil
}

func (b *ChromedpBrowser) Evaluate(ctx context.Context, script string, out any) error {
	return b.run(ctx, 0, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
}

func (b *ChromedpBrowser) SetViewport(ctx context.Context, width, height int) error {
	return b.run(ctx, 0, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false))
}

func (b *ChromedpBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

func (b *ChromedpBrowser) Info(ctx context.Context) (PageInfo, error) {
	var info PageInfo
	err := b.run(ctx, 0,
		chromedp.Title(&info.Title),
		chromedp.Location(&info.URL),
		chromedp.Evaluate(`navigator.userAgent`, &info.UserAgent),
	)
	if err != nil {
		return PageInfo{}, fmt.Errorf("read page info: %w", err)
	}
	return info, nil
}

func (b *ChromedpBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read outer html: %w", err)
	}
	return html, nil
}

// Close shuts the browser down. Safe to call more than once.
func (b *ChromedpBrowser) Close() error {
	if b.cancel == nil {
		return nil
	}
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	b.cancel = nil
	b.logger.Info("browser closed")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
