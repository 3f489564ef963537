package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/ui/notify"
)

// fixedTimer reports deterministic durations for output assertions.
type fixedTimer struct {
	total time.Duration
	stage time.Duration
}

func (t *fixedTimer) Start()    {}
func (t *fixedTimer) NewStage() {}
func (t *fixedTimer) Stop()     {}

func (t *fixedTimer) GetTiming() (time.Duration, time.Duration) {
	return t.total, t.stage
}

func TestWriteMessage_ErrorType(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.ErrorType,
		Content: "test error",
		Writer:  &out,
	})

	got := out.String()
	want := "✗ test error\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_WithFormatting(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.ErrorType,
		Content: "error: %s (%d)",
		Args:    []any{"failed", 42},
		Writer:  &out,
	})

	got := out.String()
	want := "✗ error: failed (42)\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_ActivityType(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Activityf(&out, "test activity")

	got := out.String()
	want := "► test activity\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_TitleType_DefaultEmoji(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.TitleType,
		Content: "Bootstrap cluster...",
		Writer:  &out,
	})

	got := out.String()
	want := "ℹ️ Bootstrap cluster...\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_TitleType_CustomEmoji(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Titlef(&out, "⏳", "Load config...")

	got := out.String()
	want := "⏳ Load config...\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_SuccessWithTimer(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	tmr := &fixedTimer{total: 3 * time.Second, stage: 500 * time.Millisecond}

	notify.SuccessWithTimerf(&out, tmr, "config loaded")

	got := out.String()
	want := "✔ config loaded\n⏲ current: 500ms\n  total:  3s\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_TimerIgnoredForNonSuccess(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.ActivityType,
		Content: "working",
		Timer:   &fixedTimer{total: time.Second, stage: time.Second},
		Writer:  &out,
	})

	got := out.String()
	want := "► working\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}

func TestWriteMessage_MultilineIndentation(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.Errorf(&out, "first line\nsecond line")

	got := out.String()
	want := "✗ first line\n  second line\n"

	if got != want {
		t.Fatalf("output mismatch. want %q, got %q", want, got)
	}
}
