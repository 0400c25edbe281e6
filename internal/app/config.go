package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/capture"
	"github.com/raysh454/pagesnap/internal/cli"
	"github.com/raysh454/pagesnap/internal/logging"
)

// Environment variables read by LoadEnv.
const (
	EnvOutputDir  = "PAGESNAP_OUTPUT_DIR"
	EnvLogLevel   = "PAGESNAP_LOG_LEVEL"
	EnvLogFile    = "PAGESNAP_LOG_FILE"
	EnvBackend    = "PAGESNAP_BACKEND"
	EnvRemoteURL  = "PAGESNAP_REMOTE_URL"
	EnvChromePath = "PAGESNAP_CHROME_PATH"
	EnvCatalog    = "PAGESNAP_CATALOG"
	EnvListenAddr = "PAGESNAP_LISTEN_ADDR"
)

// Config is the runtime configuration shared by the CLI and the service.
type Config struct {
	// OutputDir receives screenshot/JSON pairs.
	OutputDir string

	Capture capture.Config
	Browser browser.Config
	Log     logging.Config

	// CatalogPath is the SQLite catalog; empty disables it.
	CatalogPath string

	// MaxFinishedJobs caps how many finished jobs the service remembers;
	// the oldest are forgotten first.
	MaxFinishedJobs int

	// ListenAddr is the HTTP address of the snapshot service.
	ListenAddr string
}

// DefaultConfig returns a Config populated with the CLI defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:  cli.DefaultOutputDir,
		Capture:    capture.DefaultConfig(),
		Browser:    browser.DefaultConfig(),
		Log:        logging.DefaultConfig(),
		ListenAddr: ":8080",

		MaxFinishedJobs: 100,
	}
}

// LoadEnv loads the given dotenv files (".env" when none are named) without
// overriding variables already set, then applies PAGESNAP_* variables to cfg.
// Missing files are ignored.
func LoadEnv(cfg *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return cfg.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvOutputDir, &c.OutputDir)
	str(EnvLogFile, &c.Log.FilePath)
	str(EnvRemoteURL, &c.Browser.RemoteURL)
	str(EnvChromePath, &c.Browser.ExecPath)
	str(EnvCatalog, &c.CatalogPath)
	str(EnvListenAddr, &c.ListenAddr)

	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Browser.Backend = browser.Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.Log.Level = level
	}
	return nil
}

// ApplyArgs copies flags that were given explicitly on the command line.
func (c *Config) ApplyArgs(args *cli.CLIArgs) {
	if args == nil {
		return
	}
	if args.IsSet("output-dir") {
		c.OutputDir = args.OutputDir
	}
	if args.IsSet("log-level") {
		c.Log.Level = args.LogLevel
	}
	if args.IsSet("log-file") {
		c.Log.FilePath = args.LogFile
	}
	if args.IsSet("backend") {
		c.Browser.Backend = args.Backend
	}
	if args.IsSet("remote-url") {
		c.Browser.RemoteURL = args.RemoteURL
	}
	if args.IsSet("headless") {
		c.Browser.Headless = args.Headless
	}
	if args.IsSet("catalog") {
		c.CatalogPath = args.Catalog
	}
}
