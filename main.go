// Command pagesnap captures a full-page screenshot of a URL with a headless
// browser and writes it next to a JSON sidecar describing the page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/pagesnap/internal/app"
	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/cli"
	"github.com/raysh454/pagesnap/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.ParseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg := app.DefaultConfig()
	if err := app.LoadEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		return 1
	}
	cfg.ApplyArgs(args)

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Error("creating output directory", logging.F("dir", cfg.OutputDir), logging.Err(err))
		return 1
	}

	browser.RegisterDefaultBackends()
	application, err := app.Build(cfg, args, logger)
	if err != nil {
		logger.Error("Failed to start browser", logging.Err(err))
		return 1
	}
	defer func() {
		if err := application.Shutdown(context.Background()); err != nil {
			logger.Warn("shutdown returned error", logging.Err(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := application.Run(ctx)
	if err != nil {
		fmt.Println("Failed to capture screenshot")
		return 0
	}
	fmt.Printf("Screenshot and JSON data saved successfully: %s\n", out.Result.ScreenshotPath)
	return 0
}
