// Command snapshotd serves captures over HTTP and WebSocket.
// Configuration comes from PAGESNAP_* environment variables and .env.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/pagesnap/internal/app"
	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/logging"
	"github.com/raysh454/pagesnap/internal/server"
)

func main() {
	os.Exit(run())
}

// run keeps deferred cleanup ahead of os.Exit.
func run() int {
	cfg := app.DefaultConfig()
	cfg.CatalogPath = "pagesnap.db"
	if err := app.LoadEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		return 1
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	browser.RegisterDefaultBackends()
	application, err := app.Build(cfg, nil, logger)
	if err != nil {
		logger.Error("failed to build application", logging.Err(err))
		return 1
	}

	srv, err := server.NewServer(server.Config{ListenAddr: cfg.ListenAddr, Logger: logger}, application.Orch)
	if err != nil {
		logger.Error("failed to create server", logging.Err(err))
		_ = application.Shutdown(context.Background())
		return 1
	}
	httpSrv := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("snapshotd listening", logging.F("addr", cfg.ListenAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	code := 0
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", logging.Err(err))
			code = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown returned error", logging.Err(err))
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Warn("application shutdown returned error", logging.Err(err))
	}
	return code
}
