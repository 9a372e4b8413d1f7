// Package jobs holds the tracking-job invariants: submission
// validation, id uniqueness, the lifecycle state machine and pass
// window conflict detection.
package jobs

import (
	"errors"
	"fmt"
	"math"

	"github.com/openorbit/gs-tracker/internal/tle"
	"github.com/openorbit/gs-tracker/internal/types"
)

var (
	// ErrInvalidWindow is returned when start does not strictly precede end
	ErrInvalidWindow = errors.New("jobs: start must precede end")
	// ErrInvalidRxFrequency is returned for a non-finite or non-positive downlink frequency
	ErrInvalidRxFrequency = errors.New("jobs: rx_frequency must be finite and positive")
	// ErrInvalidTxFrequency is returned for a non-finite or non-positive uplink frequency
	ErrInvalidTxFrequency = errors.New("jobs: tx_frequency must be finite and positive")
)

// Validate asserts the invariants a job must satisfy before any
// scheduler accepts it. Checks run in a fixed order and the first
// violation is reported: time window, rx frequency, tx frequency, TLE
// structure. Id uniqueness is a collection-level invariant enforced by
// the Registry, not here. The uplink payload length is not checked;
// bounding is a transport concern.
func Validate(job *types.Job) error {
	if !job.Start.Before(job.End) {
		return ErrInvalidWindow
	}
	if !validFrequency(job.RxFrequency) {
		return ErrInvalidRxFrequency
	}
	if !validFrequency(job.TxFrequency) {
		return ErrInvalidTxFrequency
	}
	if err := tle.Validate(&job.TLE); err != nil {
		return fmt.Errorf("jobs: invalid tle: %w", err)
	}
	return nil
}

func validFrequency(hz float64) bool {
	return hz > 0 && !math.IsNaN(hz) && !math.IsInf(hz, 1)
}
