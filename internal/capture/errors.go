package capture

import (
	"errors"
	"fmt"

	"github.com/raysh454/pagesnap/internal/browser"
)

var (
	// ErrNavigationTimeout reports that the page never produced a body in
	// time. No files are written.
	ErrNavigationTimeout = browser.ErrNavigationTimeout

	// ErrCaptureFailed matches every other fatal capture error.
	ErrCaptureFailed = errors.New("capture failed")
)

// Error is returned for any failed capture and records the state the
// sequence was in when it failed.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture failed while %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCaptureFailed) match generic failures while
// navigation timeouts stay distinguishable.
func (e *Error) Is(target error) bool {
	return target == ErrCaptureFailed && !errors.Is(e.Err, ErrNavigationTimeout)
}
