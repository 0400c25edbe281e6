package main

import (
	"os"
	"testing"
)

func TestRun_RejectsBadPort(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	for _, arg := range []string{"abc", "0", "70000"} {
		os.Args = []string{"demoserver", arg}
		if code := run(); code != 2 {
			t.Errorf("run(%q) = %d, want 2", arg, code)
		}
	}
}
