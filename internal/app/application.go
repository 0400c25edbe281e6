package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/capture"
	"github.com/raysh454/pagesnap/internal/catalog"
	"github.com/raysh454/pagesnap/internal/cli"
	"github.com/raysh454/pagesnap/internal/clock"
	"github.com/raysh454/pagesnap/internal/logging"
)

// Application is the global runtime state container.
// It holds config, parsed CLI args and the services shared across modules
// (browser session, catalog, orchestrator, logger). Pass Application into
// modules that need access to the global state rather than using
// package-level variables.
type Application struct {
	Config *Config
	Args   *cli.CLIArgs

	Logger  logging.Logger
	Browser browser.Browser
	Catalog *catalog.Catalog
	Orch    *Orchestrator

	closed bool
}

// NewApplication constructs an Application from already-built parts. cat may
// be nil.
func NewApplication(cfg *Config, args *cli.CLIArgs, logger logging.Logger, b browser.Browser, clk clock.Clock, cat *catalog.Catalog) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctrl := capture.NewController(cfg.Capture, b, clk, logger)
	return &Application{
		Config:  cfg,
		Args:    args,
		Logger:  logger,
		Browser: b,
		Catalog: cat,
		Orch:    NewOrchestrator(cfg, ctrl, cat, logger),
	}
}

// Build starts the configured browser backend and opens the catalog, then
// assembles the Application. Backends must be registered beforehand.
func Build(cfg *Config, args *cli.CLIArgs, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	b, err := browser.NewBrowser(cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath, logger)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("open catalog: %w", err)
		}
	}
	return NewApplication(cfg, args, logger, b, clock.New(), cat), nil
}

// Run performs the single capture described by the CLI args.
func (a *Application) Run(ctx context.Context) (*Outcome, error) {
	if a == nil {
		return nil, errors.New("application is nil")
	}
	if a.Args == nil {
		return nil, errors.New("no capture requested")
	}
	return a.Orch.Capture(ctx, a.Orch.NewRequest(a.Args.URL, a.Args.WaitTime))
}

// Shutdown stops running jobs, then releases the browser and the catalog.
// It is safe to call more than once.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.closed {
		return nil
	}
	a.closed = true
	a.Logger.Debug("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if a.Orch != nil {
		if err := a.Orch.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("orchestrator shutdown returned error", logging.Err(err))
		}
	}
	if a.Browser != nil {
		if err := a.Browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if a.Catalog != nil {
		if err := a.Catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
	}
	return errors.Join(errs...)
}
