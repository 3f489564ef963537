// Package timer tracks elapsed time across the stages of a command run.
package timer

import "time"

// Timer measures total elapsed time and the elapsed time of the current
// stage.
type Timer interface {
	// Start begins the overall measurement and the first stage.
	Start()
	// NewStage starts a fresh stage measurement.
	NewStage()
	// Stop freezes the measurement.
	Stop()
	// GetTiming returns the total elapsed time and the current stage's
	// elapsed time.
	GetTiming() (total time.Duration, stage time.Duration)
}

type clockTimer struct {
	startedAt time.Time
	stageAt   time.Time
	stoppedAt time.Time
	running   bool
}

// New creates a wall-clock backed Timer.
func New() Timer {
	return &clockTimer{}
}

func (t *clockTimer) Start() {
	now := time.Now()
	t.startedAt = now
	t.stageAt = now
	t.running = true
}

func (t *clockTimer) NewStage() {
	if !t.running {
		return
	}

	t.stageAt = time.Now()
}

func (t *clockTimer) Stop() {
	if !t.running {
		return
	}

	t.stoppedAt = time.Now()
	t.running = false
}

func (t *clockTimer) GetTiming() (time.Duration, time.Duration) {
	if t.startedAt.IsZero() {
		return 0, 0
	}

	reference := t.stoppedAt
	if t.running {
		reference = time.Now()
	}

	return reference.Sub(t.startedAt), reference.Sub(t.stageAt)
}
