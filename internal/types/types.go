package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a tracking job. Status is
// attached to a job by the executing subsystem and never stored inside
// the Job record itself.
type JobStatus string

const (
	StatusReceived  JobStatus = "received"
	StatusScheduled JobStatus = "scheduled"
	StatusStarted   JobStatus = "started"
	StatusCompleted JobStatus = "completed"
	StatusError     JobStatus = "error"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TLEData holds a NORAD two-line element set for one satellite: a name
// line plus two fixed-format 69-character data lines.
type TLEData struct {
	Tle0 string `json:"tle0"`
	Tle1 string `json:"tle1"`
	Tle2 string `json:"tle2"`
}

// UplinkPayload is a raw byte sequence that marshals as a JSON array of
// numbers (0-255) to match the job submission payload format, instead
// of the base64 string encoding/json uses for []byte.
type UplinkPayload []byte

// MarshalJSON implements json.Marshaler.
func (p UplinkPayload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	vals := make([]int, len(p))
	for i, b := range p {
		vals[i] = int(b)
	}
	return json.Marshal(vals)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *UplinkPayload) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("uplink must be an array of byte values: %w", err)
	}
	buf := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("uplink byte at index %d out of range: %d", i, v)
		}
		buf[i] = byte(v)
	}
	*p = buf
	return nil
}

// Job is a scheduled tracking request for a single satellite pass. A
// Job is immutable once accepted; a changed schedule is a new job, not
// a mutation. Runtime state lives in the status store.
type Job struct {
	ID          uint64        `json:"id"`
	SatelliteID string        `json:"satellite_id"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	TLE         TLEData       `json:"tle"`
	RxFrequency float64       `json:"rx_frequency"`
	TxFrequency float64       `json:"tx_frequency"`
	Uplink      UplinkPayload `json:"uplink,omitempty"`
}

// HasUplink reports whether the pass transmits as well as receives.
func (j *Job) HasUplink() bool {
	return len(j.Uplink) > 0
}

// StatusEvent pairs a job id with its current status. One event is
// emitted on every lifecycle transition.
type StatusEvent struct {
	JobID     uint64    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Cause     string    `json:"cause,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TelemetryMessage is the transport envelope for one frame received by
// a ground station. Ephemeral; produced per frame, not persisted.
type TelemetryMessage struct {
	GroundStationID string    `json:"ground_station_id"`
	Timestamp       time.Time `json:"timestamp"`
	Payload         []byte    `json:"payload"`
}

// TelemetryRecord is a decoded telemetry sample. Out-of-range physical
// values are accepted; analysis is a downstream concern.
type TelemetryRecord struct {
	ID           string  `json:"id"`
	Timestamp    int64   `json:"timestamp"`
	Temperature  float64 `json:"temperature"`
	Voltage      float64 `json:"voltage"`
	Current      float64 `json:"current"`
	BatteryLevel int     `json:"battery_level"`
}
