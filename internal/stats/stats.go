// Package stats tracks pipeline counters for the tracker service.
package stats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openorbit/gs-tracker/internal/db"
	"github.com/openorbit/gs-tracker/internal/types"
)

// statusIndex maps the lifecycle order to status_counts positions:
// received, scheduled, started, completed, error.
const statusSlots = 5

// Stats tracks frame and job processing statistics
type Stats struct {
	// Telemetry counters
	TotalFrames        uint64
	DecodedRecords     uint64
	FailedDecodes      uint64
	CorrelatedRecords  uint64
	UncorrelatedFrames uint64

	// Job counters
	SubmittedJobs uint64
	RejectedJobs  uint64
	CompletedJobs uint64
	FailedJobs    uint64

	// Per-status transition counts in lifecycle order
	StatusCounts [statusSlots]uint64

	// Gauges and timing
	ActiveJobs     uint64
	LastFrameTime  time.Time
	ProcessingTime time.Duration

	// Database client for persistence
	db *db.Client

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		LastFrameTime: time.Now(),
	}
}

// SetDB sets the database client for persistence
func (s *Stats) SetDB(db *db.Client) {
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
}

// Persist stores the current statistics in the database
func (s *Stats) Persist() error {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return fmt.Errorf("database client not set")
	}
	s.mu.RUnlock()

	return s.db.StoreSystemStats(s.Snapshot())
}

// StartPersistence periodically persists statistics until the context
// is cancelled.
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				log.Printf("Failed to persist stats: %v", err)
			}
		}
	}
}

// IncrementTotalFrames increments the received frame counter
func (s *Stats) IncrementTotalFrames() {
	atomic.AddUint64(&s.TotalFrames, 1)
}

// IncrementDecodedRecords increments the decoded sample counter
func (s *Stats) IncrementDecodedRecords() {
	atomic.AddUint64(&s.DecodedRecords, 1)
}

// IncrementFailedDecodes increments the decode failure counter
func (s *Stats) IncrementFailedDecodes() {
	atomic.AddUint64(&s.FailedDecodes, 1)
}

// IncrementCorrelatedRecords increments the correlated sample counter
func (s *Stats) IncrementCorrelatedRecords() {
	atomic.AddUint64(&s.CorrelatedRecords, 1)
}

// IncrementUncorrelatedFrames counts frames with no matching pass
func (s *Stats) IncrementUncorrelatedFrames() {
	atomic.AddUint64(&s.UncorrelatedFrames, 1)
}

// IncrementSubmittedJobs increments the submission counter
func (s *Stats) IncrementSubmittedJobs() {
	atomic.AddUint64(&s.SubmittedJobs, 1)
}

// IncrementRejectedJobs increments the validation failure counter
func (s *Stats) IncrementRejectedJobs() {
	atomic.AddUint64(&s.RejectedJobs, 1)
}

// IncrementCompletedJobs increments the completed pass counter
func (s *Stats) IncrementCompletedJobs() {
	atomic.AddUint64(&s.CompletedJobs, 1)
}

// IncrementFailedJobs increments the errored job counter
func (s *Stats) IncrementFailedJobs() {
	atomic.AddUint64(&s.FailedJobs, 1)
}

// statusSlot maps a lifecycle status to its status_counts position.
var statusSlot = map[types.JobStatus]int{
	types.StatusReceived:  0,
	types.StatusScheduled: 1,
	types.StatusStarted:   2,
	types.StatusCompleted: 3,
	types.StatusError:     4,
}

// CountTransition records one lifecycle transition by target status
func (s *Stats) CountTransition(status types.JobStatus) {
	slot, ok := statusSlot[status]
	if !ok {
		return
	}
	atomic.AddUint64(&s.StatusCounts[slot], 1)
}

// SetActiveJobs updates the live job gauge
func (s *Stats) SetActiveJobs(n uint64) {
	atomic.StoreUint64(&s.ActiveJobs, n)
}

// UpdateLastFrameTime records the arrival of a frame
func (s *Stats) UpdateLastFrameTime() {
	s.mu.Lock()
	s.LastFrameTime = time.Now()
	s.mu.Unlock()
}

// AddProcessingTime accumulates frame processing time
func (s *Stats) AddProcessingTime(d time.Duration) {
	s.mu.Lock()
	s.ProcessingTime += d
	s.mu.Unlock()
}

// Snapshot returns a copy of the current statistics
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts [statusSlots]uint64
	for i := range counts {
		counts[i] = atomic.LoadUint64(&s.StatusCounts[i])
	}

	return map[string]interface{}{
		"total_frames":        atomic.LoadUint64(&s.TotalFrames),
		"decoded_records":     atomic.LoadUint64(&s.DecodedRecords),
		"failed_decodes":      atomic.LoadUint64(&s.FailedDecodes),
		"correlated_records":  atomic.LoadUint64(&s.CorrelatedRecords),
		"uncorrelated_frames": atomic.LoadUint64(&s.UncorrelatedFrames),
		"submitted_jobs":      atomic.LoadUint64(&s.SubmittedJobs),
		"rejected_jobs":       atomic.LoadUint64(&s.RejectedJobs),
		"completed_jobs":      atomic.LoadUint64(&s.CompletedJobs),
		"failed_jobs":         atomic.LoadUint64(&s.FailedJobs),
		"active_jobs":         atomic.LoadUint64(&s.ActiveJobs),
		"status_counts":       counts,
		"last_frame_time":     s.LastFrameTime,
		"processing_time":     s.ProcessingTime,
	}
}

// String renders the counters for the periodic stats log
func (s *Stats) String() string {
	snap := s.Snapshot()
	return fmt.Sprintf(
		"frames=%d decoded=%d failed=%d correlated=%d uncorrelated=%d "+
			"submitted=%d rejected=%d completed=%d errored=%d active=%d",
		snap["total_frames"], snap["decoded_records"], snap["failed_decodes"],
		snap["correlated_records"], snap["uncorrelated_frames"],
		snap["submitted_jobs"], snap["rejected_jobs"],
		snap["completed_jobs"], snap["failed_jobs"], snap["active_jobs"],
	)
}
