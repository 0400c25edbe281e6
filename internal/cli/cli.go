package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/logging"
)

// DefaultOutputDir is where screenshots land when --output-dir is not given.
const DefaultOutputDir = "snapshotFile"

// CLIArgs are the command-line arguments for a single capture run.
type CLIArgs struct {
	// URL is the page to capture.
	URL string

	OutputDir string
	LogLevel  logging.Level
	LogFile   string

	// WaitTime is nil unless --wait-time was given.
	WaitTime *time.Duration

	Backend   browser.Backend
	RemoteURL string
	Headless  bool

	// Catalog is a SQLite path; empty disables cataloguing.
	Catalog string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string

	set map[string]bool
}

// IsSet reports whether the named flag appeared on the command line, so
// callers can let explicit flags win over environment configuration.
func (a *CLIArgs) IsSet(name string) bool { return a.set[name] }

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
// Usage errors are written to usage; pass nil to discard them.
func ParseArgs(args []string, usage io.Writer) (*CLIArgs, error) {
	fs := flag.NewFlagSet("pagesnap", flag.ContinueOnError)
	var (
		url       = fs.String("url", "", "URL to capture (required)")
		outputDir = fs.String("output-dir", DefaultOutputDir, "Directory to save screenshots and JSON data")
		logLevel  = fs.String("log-level", "INFO", "Logging level: DEBUG|INFO|WARNING|ERROR|CRITICAL")
		waitTime  = fs.Int("wait-time", 0, "Additional seconds to wait after page load (optional)")
		logFile   = fs.String("log-file", logging.DefaultConfig().FilePath, "Log file, appended to")
		backend   = fs.String("backend", string(browser.BackendChromedp), "Browser backend: chromedp|rod")
		remoteURL = fs.String("remote-url", "", "DevTools URL of an already running browser")
		headless  = fs.Bool("headless", true, "Run the browser without a window")
		catalog   = fs.String("catalog", "", "SQLite catalog path (empty disables)")
	)

	if usage == nil {
		usage = io.Discard
	}
	fs.SetOutput(usage)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if strings.TrimSpace(*url) == "" {
		return nil, errors.New("missing required -url argument")
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}

	out := &CLIArgs{
		URL:       strings.TrimSpace(*url),
		OutputDir: *outputDir,
		LogLevel:  level,
		LogFile:   *logFile,
		Backend:   browser.Backend(strings.ToLower(*backend)),
		RemoteURL: *remoteURL,
		Headless:  *headless,
		Catalog:   *catalog,
		RawArgs:   args,
		set:       set,
	}

	if set["wait-time"] {
		if *waitTime < 0 {
			return nil, fmt.Errorf("invalid -wait-time %d: must be a non-negative integer", *waitTime)
		}
		d := time.Duration(*waitTime) * time.Second
		out.WaitTime = &d
	}

	return out, nil
}
