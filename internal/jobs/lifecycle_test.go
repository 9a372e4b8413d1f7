package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/openorbit/gs-tracker/internal/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to types.JobStatus
		want     bool
	}{
		{types.StatusReceived, types.StatusScheduled, true},
		{types.StatusScheduled, types.StatusStarted, true},
		{types.StatusStarted, types.StatusCompleted, true},

		// Error is reachable from every non-terminal state.
		{types.StatusReceived, types.StatusError, true},
		{types.StatusScheduled, types.StatusError, true},
		{types.StatusStarted, types.StatusError, true},

		// No skipping ahead.
		{types.StatusReceived, types.StatusStarted, false},
		{types.StatusReceived, types.StatusCompleted, false},
		{types.StatusScheduled, types.StatusCompleted, false},

		// No going back.
		{types.StatusScheduled, types.StatusReceived, false},
		{types.StatusStarted, types.StatusScheduled, false},

		// Terminal states have no outgoing edges.
		{types.StatusCompleted, types.StatusError, false},
		{types.StatusCompleted, types.StatusStarted, false},
		{types.StatusError, types.StatusScheduled, false},
		{types.StatusError, types.StatusError, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatusStore_Register(t *testing.T) {
	now := time.Date(2025, 9, 19, 11, 0, 0, 0, time.UTC)
	store := NewStatusStore(fixedClock(now))

	ev, err := store.Register(12345)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if ev.Status != types.StatusReceived {
		t.Errorf("Initial status = %s, want %s", ev.Status, types.StatusReceived)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("Event timestamp = %v, want %v", ev.Timestamp, now)
	}

	if status, ok := store.Status(12345); !ok || status != types.StatusReceived {
		t.Errorf("Status() = %s, %v, want %s, true", status, ok, types.StatusReceived)
	}

	if _, err := store.Register(12345); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Second Register() error = %v, want %v", err, ErrDuplicateID)
	}
}

func TestStatusStore_FullLifecycle(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Register(1); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	for _, to := range []types.JobStatus{types.StatusScheduled, types.StatusStarted, types.StatusCompleted} {
		ev, err := store.Transition(1, to, "")
		if err != nil {
			t.Fatalf("Transition(%s) failed: %v", to, err)
		}
		if ev.JobID != 1 || ev.Status != to {
			t.Errorf("Transition event = %+v, want job 1 status %s", ev, to)
		}
	}

	// Completed is terminal.
	if _, err := store.Transition(1, types.StatusError, "too late"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Transition from terminal state: error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStatusStore_IllegalSkip(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Register(1); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if _, err := store.Transition(1, types.StatusCompleted, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Received -> Completed: error = %v, want %v", err, ErrInvalidTransition)
	}

	// A failed transition leaves the status untouched.
	if status, _ := store.Status(1); status != types.StatusReceived {
		t.Errorf("Status after rejected transition = %s, want %s", status, types.StatusReceived)
	}
}

func TestStatusStore_ErrorCarriesCause(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Register(7); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	ev, err := store.Transition(7, types.StatusError, "window conflict with job 3")
	if err != nil {
		t.Fatalf("Transition to Error failed: %v", err)
	}
	if ev.Cause != "window conflict with job 3" {
		t.Errorf("Event cause = %q, want the failure cause", ev.Cause)
	}

	cause, ok := store.Cause(7)
	if !ok || cause != "window conflict with job 3" {
		t.Errorf("Cause() = %q, %v, want recorded cause, true", cause, ok)
	}
}

func TestStatusStore_CauseIgnoredOnSuccess(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Register(2); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	ev, err := store.Transition(2, types.StatusScheduled, "should be dropped")
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if ev.Cause != "" {
		t.Errorf("Cause on a non-error transition = %q, want empty", ev.Cause)
	}
	if _, ok := store.Cause(2); ok {
		t.Error("Cause() reported a cause for a non-error status")
	}
}

func TestStatusStore_UnknownJob(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Transition(99, types.StatusScheduled, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Transition on unknown id: error = %v, want %v", err, ErrNotFound)
	}
	if _, ok := store.Status(99); ok {
		t.Error("Status() reported an unknown job")
	}
}

func TestStatusStore_Drop(t *testing.T) {
	store := NewStatusStore(nil)
	if _, err := store.Register(5); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	store.Drop(5)
	if _, ok := store.Status(5); ok {
		t.Error("Status() still reports a dropped job")
	}

	// The id is free for a new job after drop.
	if _, err := store.Register(5); err != nil {
		t.Errorf("Register() after Drop() failed: %v", err)
	}
}
