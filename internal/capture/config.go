package capture

import "time"

// Config holds the timing heuristics of the capture pipeline. The defaults
// reproduce the behaviour operators are used to; tests shrink or inspect them.
type Config struct {
	// NavigationTimeout bounds the wait for a <body> after navigation. It is
	// the only timeout that fails a capture.
	NavigationTimeout time.Duration

	// Progressive scroll: ScrollSteps increments per pass, ScrollStepPause
	// between increments, ScrollSettle after reaching the bottom.
	ScrollSteps     int
	ScrollStepPause time.Duration
	ScrollSettle    time.Duration
	// MaxScrollPasses caps passes for pages that never stop growing.
	MaxScrollPasses int

	StabilityTimeout time.Duration
	StabilityPoll    time.Duration
	StabilityConfirm time.Duration

	ImageTimeout time.Duration
	ImagePoll    time.Duration

	RequestIdleTimeout time.Duration
	RequestIdlePoll    time.Duration
	MutationWindow     time.Duration

	// FallbackDelay is slept when no explicit wait time was requested and
	// the page did not look settled.
	FallbackDelay time.Duration

	// ResizeMargin is added to both measured dimensions before the viewport
	// resize so the screenshot is never clipped.
	ResizeMargin int
	ResizeSettle time.Duration

	FilePrefix      string
	TimestampLayout string
}

func DefaultConfig() Config {
	return Config{
		NavigationTimeout:  10 * time.Second,
		ScrollSteps:        10,
		ScrollStepPause:    500 * time.Millisecond,
		ScrollSettle:       2 * time.Second,
		MaxScrollPasses:    20,
		StabilityTimeout:   10 * time.Second,
		StabilityPoll:      1 * time.Second,
		StabilityConfirm:   2 * time.Second,
		ImageTimeout:       10 * time.Second,
		ImagePoll:          250 * time.Millisecond,
		RequestIdleTimeout: 5 * time.Second,
		RequestIdlePoll:    500 * time.Millisecond,
		MutationWindow:     1 * time.Second,
		FallbackDelay:      3 * time.Second,
		ResizeMargin:       100,
		ResizeSettle:       2 * time.Second,
		FilePrefix:         "snapshot_",
		TimestampLayout:    "20060102_150405",
	}
}
