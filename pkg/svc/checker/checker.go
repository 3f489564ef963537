// Package checker verifies that the host machine can run the platform-mesh
// bootstrap: a container engine is reachable, the CPU architecture is
// supported, and the kubeconfig location is writable.
//
// All checks run, even when an early one fails, so the user sees every
// problem in a single pass.
package checker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrChecksFailed is returned when at least one environment check failed.
var ErrChecksFailed = errors.New("environment checks failed")

// Check is a single host environment verification.
type Check struct {
	// Name identifies the check in diagnostics (e.g. "container engine").
	Name string
	// Hint suggests how to fix a failure, shown alongside the diagnostic.
	Hint string
	// Run performs the verification. The returned string is an optional
	// detail about what was found, shown on success (e.g. which container
	// engine responded).
	Run func(ctx context.Context) (string, error)
}

// Result is the outcome of one check.
type Result struct {
	Name   string
	Hint   string
	Detail string
	Err    error
}

// Failed reports whether the check failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Runner executes a fixed set of environment checks.
type Runner struct {
	checks []Check
}

// NewRunner creates a Runner over the given checks.
func NewRunner(checks ...Check) *Runner {
	return &Runner{checks: checks}
}

// Run executes all checks concurrently and returns one result per check, in
// registration order. The returned error is nil only when every check
// passed; otherwise it wraps ErrChecksFailed with the failure count.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(r.checks))

	group, groupCtx := errgroup.WithContext(ctx)

	for i, check := range r.checks {
		group.Go(func() error {
			detail, err := check.Run(groupCtx)

			results[i] = Result{
				Name:   check.Name,
				Hint:   check.Hint,
				Detail: detail,
				Err:    err,
			}

			// Check failures are reported via results, not the group error,
			// so the remaining checks keep running.
			return nil
		})
	}

	_ = group.Wait()

	failures := 0

	for _, result := range results {
		if result.Failed() {
			failures++
		}
	}

	if failures > 0 {
		return results, fmt.Errorf("%w: %d of %d checks failed", ErrChecksFailed, failures, len(r.checks))
	}

	return results, nil
}
