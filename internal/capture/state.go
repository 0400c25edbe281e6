package capture

import (
	"fmt"
	"time"
)

// State is a step of the capture sequence.
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateScrollingForLazyLoad
	StateWaitingForStability
	StateWaitingForImages
	StateCheckingDynamicContent
	StateResizingViewport
	StateCapturing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                   "idle",
	StateNavigating:             "navigating",
	StateScrollingForLazyLoad:   "scrolling_for_lazy_load",
	StateWaitingForStability:    "waiting_for_stability",
	StateWaitingForImages:       "waiting_for_images",
	StateCheckingDynamicContent: "checking_dynamic_content",
	StateResizingViewport:       "resizing_viewport",
	StateCapturing:              "capturing",
	StateDone:                   "done",
	StateFailed:                 "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText makes states readable in JSON event streams.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown capture state %q", b)
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Event is emitted on every state transition.
type Event struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
	Error string    `json:"error,omitempty"`
}

// Observer receives transition events synchronously on the capturing
// goroutine; it must not block for long.
type Observer func(Event)
