package readiness

import (
	"context"
	"fmt"
	"time"
)

// PollInterval is the delay between readiness probes.
const PollInterval = 2 * time.Second

// ConditionFunc reports whether the observed resource is ready. Returning a
// non-nil error aborts polling; transient errors should be swallowed so
// polling continues.
type ConditionFunc func(ctx context.Context) (bool, error)

// PollForReadiness polls the condition until it reports ready, the deadline
// elapses, or the context is cancelled. The condition is probed immediately
// and then once per PollInterval.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	condition ConditionFunc,
) error {
	pollCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		ready, err := condition(pollCtx)
		if err != nil {
			return err
		}

		if ready {
			return nil
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("readiness poll cancelled: %w", ctx.Err())
			}

			return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
		case <-ticker.C:
		}
	}
}
