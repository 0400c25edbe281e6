package capture

import (
	"context"
	"fmt"

	"github.com/raysh454/pagesnap/internal/clock"
	"github.com/raysh454/pagesnap/internal/logging"
)

// Quiescence is the outcome of the dynamic-content check.
type Quiescence int

const (
	// QuiescenceStable: no pending requests and no DOM mutations observed.
	QuiescenceStable Quiescence = iota
	// QuiescenceUnstable: requests still pending or the DOM kept changing.
	QuiescenceUnstable
	// QuiescenceCheckFailed: the page could not be inspected.
	QuiescenceCheckFailed
)

func (q Quiescence) String() string {
	switch q {
	case QuiescenceStable:
		return "stable"
	case QuiescenceUnstable:
		return "unstable"
	case QuiescenceCheckFailed:
		return "check_failed"
	}
	return fmt.Sprintf("Quiescence(%d)", int(q))
}

func (q Quiescence) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *Quiescence) UnmarshalText(b []byte) error {
	for _, v := range []Quiescence{QuiescenceStable, QuiescenceUnstable, QuiescenceCheckFailed} {
		if v.String() == string(b) {
			*q = v
			return nil
		}
	}
	return fmt.Errorf("unknown quiescence %q", b)
}

// checkQuiescence never fails the capture; problems are folded into the
// returned state.
func (c *Controller) checkQuiescence(ctx context.Context) Quiescence {
	c.logger.Info("Checking for dynamic content loading")

	idle, err := c.waitRequestsIdle(ctx)
	if err != nil {
		c.logger.Debug("Error checking dynamic content", logging.Err(err))
		return QuiescenceCheckFailed
	}
	if !idle {
		c.logger.Debug("Asynchronous requests still pending")
		return QuiescenceUnstable
	}

	var changes int
	if err := c.browser.Evaluate(ctx, mutationCountJS(c.cfg.MutationWindow), &changes); err != nil {
		c.logger.Debug("Error checking dynamic content", logging.Err(err))
		return QuiescenceCheckFailed
	}
	if changes == 0 {
		c.logger.Info("No DOM changes detected, content appears stable")
		return QuiescenceStable
	}
	c.logger.Debug("DOM still changing", logging.F("mutations", changes))
	return QuiescenceUnstable
}

// waitRequestsIdle polls until no request activity is reported. It returns
// false without error when the timeout elapses.
func (c *Controller) waitRequestsIdle(ctx context.Context) (bool, error) {
	start := c.clock.Now()
	for {
		var idle bool
		if err := c.browser.Evaluate(ctx, requestsIdleJS, &idle); err != nil {
			return false, err
		}
		if idle {
			return true, nil
		}
		if clock.Since(c.clock, start) >= c.cfg.RequestIdleTimeout {
			return false, nil
		}
		if err := c.clock.Sleep(ctx, c.cfg.RequestIdlePoll); err != nil {
			return false, err
		}
	}
}
