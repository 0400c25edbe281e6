package capture

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/raysh454/pagesnap/internal/clock"
	"github.com/raysh454/pagesnap/internal/logging"
)

var errImagesTimeout = errors.New("timeout waiting for images to load")

func (c *Controller) evalInt(ctx context.Context, script string) (int, error) {
	var v float64
	if err := c.browser.Evaluate(ctx, script, &v); err != nil {
		return 0, err
	}
	return int(math.Ceil(v)), nil
}

// progressiveScroll walks the page in ScrollSteps increments per pass until
// the scroll height stops growing or MaxScrollPasses is reached, then returns
// to the top. It reports how many passes ran.
func (c *Controller) progressiveScroll(ctx context.Context) (int, error) {
	c.logger.Info("Starting progressive scroll to trigger lazy loading")

	last, err := c.evalInt(ctx, scrollHeightJS)
	if err != nil {
		return 0, fmt.Errorf("measure scroll height: %w", err)
	}

	steps := max(c.cfg.ScrollSteps, 1)
	passes := 0
	for {
		passes++
		for i := 1; i <= steps; i++ {
			if err := c.browser.Evaluate(ctx, scrollToFractionJS(float64(i)/float64(steps)), nil); err != nil {
				return passes, fmt.Errorf("scroll: %w", err)
			}
			pause := c.cfg.ScrollStepPause
			if i == steps {
				pause = c.cfg.ScrollSettle
			}
			if err := c.clock.Sleep(ctx, pause); err != nil {
				return passes, err
			}
		}

		height, err := c.evalInt(ctx, scrollHeightJS)
		if err != nil {
			return passes, fmt.Errorf("measure scroll height: %w", err)
		}
		if height == last {
			break
		}
		c.logger.Debug("Page grew during scroll", logging.F("from", last), logging.F("to", height), logging.F("pass", passes))
		last = height

		if c.cfg.MaxScrollPasses > 0 && passes >= c.cfg.MaxScrollPasses {
			c.logger.Warn("Page kept growing, giving up on progressive scroll",
				logging.F("passes", passes), logging.F("height", height))
			break
		}
	}

	if err := c.browser.Evaluate(ctx, scrollTopJS, nil); err != nil {
		return passes, fmt.Errorf("scroll to top: %w", err)
	}
	c.logger.Info("Completed progressive scroll", logging.F("passes", passes))
	return passes, nil
}

// waitForStableHeight samples the scroll height every StabilityPoll until two
// consecutive samples agree or StabilityTimeout elapses.
func (c *Controller) waitForStableHeight(ctx context.Context) (bool, error) {
	c.logger.Info("Waiting for content to stabilize")

	start := c.clock.Now()
	last := -1
	for clock.Since(c.clock, start) < c.cfg.StabilityTimeout {
		current, err := c.evalInt(ctx, scrollHeightJS)
		if err != nil {
			return false, fmt.Errorf("measure scroll height: %w", err)
		}
		if current == last {
			if err := c.clock.Sleep(ctx, c.cfg.StabilityConfirm); err != nil {
				return false, err
			}
			return true, nil
		}
		last = current
		if err := c.clock.Sleep(ctx, c.cfg.StabilityPoll); err != nil {
			return false, err
		}
	}
	return false, nil
}

// waitForImages polls until every <img> has finished with a non-zero size.
// A page without images returns on the first poll.
func (c *Controller) waitForImages(ctx context.Context) error {
	c.logger.Info("Waiting for images to load")

	start := c.clock.Now()
	var lastErr error
	for {
		var ready bool
		err := c.browser.Evaluate(ctx, imagesReadyJS, &ready)
		if err == nil && ready {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		}
		if clock.Since(c.clock, start) >= c.cfg.ImageTimeout {
			if lastErr != nil {
				return fmt.Errorf("%w: %v", errImagesTimeout, lastErr)
			}
			return errImagesTimeout
		}
		if err := c.clock.Sleep(ctx, c.cfg.ImagePoll); err != nil {
			return err
		}
	}
}

// measurePage returns the full content size, taking the maximum of several
// DOM metrics since any single one can under-report.
func (c *Controller) measurePage(ctx context.Context) (width, height int, err error) {
	height, err = c.evalInt(ctx, pageHeightJS)
	if err != nil {
		return 0, 0, fmt.Errorf("measure page height: %w", err)
	}
	width, err = c.evalInt(ctx, pageWidthJS)
	if err != nil {
		return 0, 0, fmt.Errorf("measure page width: %w", err)
	}
	return width, height, nil
}
