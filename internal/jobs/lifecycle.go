package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openorbit/gs-tracker/internal/types"
)

// ErrInvalidTransition is returned for a lifecycle edge that does not exist
var ErrInvalidTransition = errors.New("jobs: illegal status transition")

// next lists the single forward edge out of each non-terminal state.
// Error is additionally reachable from every non-terminal state.
var next = map[types.JobStatus]types.JobStatus{
	types.StatusReceived:  types.StatusScheduled,
	types.StatusScheduled: types.StatusStarted,
	types.StatusStarted:   types.StatusCompleted,
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another. Transitions are one-directional and terminal
// states have no outgoing edges.
func CanTransition(from, to types.JobStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == types.StatusError {
		return true
	}
	return next[from] == to
}

type statusEntry struct {
	status types.JobStatus
	cause  string
}

// StatusStore tracks the current status of live jobs outside the
// immutable Job record, keyed by job id. All updates go through
// Register and Transition under a single lock, so at most one status
// transition per job id is in flight at a time.
type StatusStore struct {
	mu    sync.RWMutex
	state map[uint64]statusEntry
	now   func() time.Time
}

// NewStatusStore creates a status store using the supplied clock for
// event timestamps. A nil clock falls back to UTC wall time.
func NewStatusStore(now func() time.Time) *StatusStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &StatusStore{
		state: make(map[uint64]statusEntry),
		now:   now,
	}
}

// Register places a freshly validated job in the Received state and
// returns the corresponding status event.
func (s *StatusStore) Register(id uint64) (*types.StatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state[id]; exists {
		return nil, ErrDuplicateID
	}
	s.state[id] = statusEntry{status: types.StatusReceived}

	return &types.StatusEvent{
		JobID:     id,
		Status:    types.StatusReceived,
		Timestamp: s.now(),
	}, nil
}

// Transition moves a job to a new status and returns the emitted
// event. The cause string is recorded for Error transitions and
// ignored otherwise. Illegal edges fail with ErrInvalidTransition
// naming both states.
func (s *StatusStore) Transition(id uint64, to types.JobStatus, cause string) (*types.StatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.state[id]
	if !exists {
		return nil, ErrNotFound
	}
	if !CanTransition(entry.status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.status, to)
	}

	if to != types.StatusError {
		cause = ""
	}
	s.state[id] = statusEntry{status: to, cause: cause}

	return &types.StatusEvent{
		JobID:     id,
		Status:    to,
		Cause:     cause,
		Timestamp: s.now(),
	}, nil
}

// Status returns the current status of a job.
func (s *StatusStore) Status(id uint64) (types.JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.state[id]
	return entry.status, ok
}

// Cause returns the recorded failure cause of a job in the Error state.
func (s *StatusStore) Cause(id uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.state[id]
	if !ok || entry.status != types.StatusError {
		return "", false
	}
	return entry.cause, true
}

// Drop forgets a job's status. Used when a terminal job leaves the
// registry; the transition history survives in the database.
func (s *StatusStore) Drop(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state, id)
}
