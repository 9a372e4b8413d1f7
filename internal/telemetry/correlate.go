package telemetry

import (
	"github.com/openorbit/gs-tracker/internal/types"
)

// Correlator associates telemetry envelopes with the job whose active
// pass produced them: same ground station, envelope timestamp inside
// the job's window. The scheduler guarantees at most one Started job
// per station per window, so the first match is the only match.
type Correlator struct {
	stationID string
}

// NewCorrelator creates a correlator for one ground station.
func NewCorrelator(stationID string) *Correlator {
	return &Correlator{stationID: stationID}
}

// StationID returns the ground station this correlator serves.
func (c *Correlator) StationID() string {
	return c.stationID
}

// Match returns the live job whose active pass covers the envelope.
// Envelopes from other stations and frames outside every Started
// window stay uncorrelated; they are still decoded and stored, just
// without a parent job.
func (c *Correlator) Match(msg *types.TelemetryMessage, live []*types.Job, status func(uint64) (types.JobStatus, bool)) (*types.Job, bool) {
	if msg.GroundStationID != c.stationID {
		return nil, false
	}

	for _, job := range live {
		st, ok := status(job.ID)
		if !ok || st != types.StatusStarted {
			continue
		}
		if !msg.Timestamp.Before(job.Start) && !msg.Timestamp.After(job.End) {
			return job, true
		}
	}
	return nil, false
}
