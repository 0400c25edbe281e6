// Command demoserver serves pages that exercise each capture heuristic:
// lazy images, infinite scroll, a constantly mutating DOM and a slow response.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/pagesnap/internal/demoserver"
	"github.com/raysh454/pagesnap/internal/logging"
)

func main() {
	os.Exit(run())
}

// run keeps deferred cleanup ahead of os.Exit.
func run() int {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			fmt.Fprintf(os.Stderr, "Invalid port: %s\n", os.Args[1])
			return 2
		}
		cfg.Port = port
	}

	logger, err := logging.NewLogger(logging.Config{Level: logging.LevelInfo, Console: os.Stdout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	fmt.Println("===========================================")
	fmt.Println("   pagesnap demo server")
	fmt.Println("===========================================")
	fmt.Printf("Pages:         http://localhost:%d/\n", cfg.Port)
	fmt.Printf("Control panel: http://localhost:%d/demo/control\n", cfg.Port)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := demoserver.NewDemoServer(cfg, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("demo server stopped", logging.Err(err))
		return 1
	}
	return 0
}
