// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"strings"
	"sync"

	"github.com/raysh454/pagesnap/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// HasError reports whether an error-level message containing substr was logged.
func (l *DummyLogger) HasError(substr string) bool {
	return l.has(&l.Errors, substr)
}

// HasWarn reports whether a warning containing substr was logged.
func (l *DummyLogger) HasWarn(substr string) bool {
	return l.has(&l.Warns, substr)
}

func (l *DummyLogger) has(msgs *[]string, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range *msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }

// NewError returns a fresh error value carrying msg.
func NewError(msg string) error { return &errString{msg} }
