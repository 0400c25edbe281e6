package cli_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/raysh454/pagesnap/internal/browser"
	"github.com/raysh454/pagesnap/internal/cli"
	"github.com/raysh454/pagesnap/internal/logging"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Parallel()
	args, err := cli.ParseArgs([]string{"--url", "https://example.com"}, nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.URL != "https://example.com" {
		t.Errorf("URL = %q", args.URL)
	}
	if args.OutputDir != cli.DefaultOutputDir {
		t.Errorf("OutputDir = %q", args.OutputDir)
	}
	if args.LogLevel != logging.LevelInfo {
		t.Errorf("LogLevel = %v", args.LogLevel)
	}
	if args.LogFile != "logs/snapshot.log" {
		t.Errorf("LogFile = %q", args.LogFile)
	}
	if args.WaitTime != nil {
		t.Errorf("WaitTime = %v, want nil", *args.WaitTime)
	}
	if args.Backend != browser.BackendChromedp || !args.Headless || args.Catalog != "" {
		t.Errorf("unexpected defaults: %+v", args)
	}
	if args.IsSet("output-dir") || !args.IsSet("url") {
		t.Error("IsSet does not reflect the command line")
	}
}

func TestParseArgs_AllFlags(t *testing.T) {
	t.Parallel()
	args, err := cli.ParseArgs([]string{
		"-url=https://example.com/x",
		"--output-dir", "/tmp/shots",
		"--log-level", "debug",
		"--wait-time", "5",
		"--backend", "ROD",
		"--remote-url", "ws://127.0.0.1:9222/devtools/browser/abc",
		"--headless=false",
		"--catalog", "/tmp/c.db",
		"--log-file", "/tmp/x.log",
	}, nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.OutputDir != "/tmp/shots" || args.LogLevel != logging.LevelDebug {
		t.Errorf("OutputDir/LogLevel = %q/%v", args.OutputDir, args.LogLevel)
	}
	if args.WaitTime == nil || *args.WaitTime != 5*time.Second {
		t.Errorf("WaitTime = %v", args.WaitTime)
	}
	if args.Backend != browser.BackendRod {
		t.Errorf("Backend = %q", args.Backend)
	}
	if args.Headless {
		t.Error("Headless should be false")
	}
	if args.RemoteURL == "" || args.Catalog != "/tmp/c.db" || args.LogFile != "/tmp/x.log" {
		t.Errorf("unexpected args: %+v", args)
	}
}

func TestParseArgs_ZeroWaitIsExplicit(t *testing.T) {
	t.Parallel()
	args, err := cli.ParseArgs([]string{"--url", "https://example.com", "--wait-time", "0"}, nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.WaitTime == nil || *args.WaitTime != 0 {
		t.Errorf("WaitTime = %v, want explicit zero", args.WaitTime)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
	}{
		{"missing url", []string{}},
		{"blank url", []string{"--url", "  "}},
		{"negative wait", []string{"--url", "https://x.example", "--wait-time", "-1"}},
		{"non-integer wait", []string{"--url", "https://x.example", "--wait-time", "1.5"}},
		{"bad level", []string{"--url", "https://x.example", "--log-level", "LOUD"}},
		{"unknown flag", []string{"--url", "https://x.example", "--verbose"}},
		{"stray positional", []string{"--url", "https://x.example", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := cli.ParseArgs(tt.args, nil); err == nil {
				t.Errorf("ParseArgs(%v) expected error", tt.args)
			}
		})
	}
}

func TestParseArgs_UsageWrittenToWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if _, err := cli.ParseArgs([]string{"--nope"}, &buf); err == nil {
		t.Fatal("expected error")
	}
	if !bytes.Contains(buf.Bytes(), []byte("-output-dir")) {
		t.Errorf("usage not written: %q", buf.String())
	}
}
