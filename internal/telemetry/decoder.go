// Package telemetry decodes raw frame payloads into telemetry records
// and correlates them with the tracking job that produced them.
package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/openorbit/gs-tracker/internal/types"
)

// IDSource mints globally-unique record identifiers. It is injected
// rather than hidden behind a global so tests can substitute a
// deterministic source.
type IDSource func() string

// NewRecord builds a telemetry record with a freshly minted id.
func NewRecord(ids IDSource, timestamp int64, temperature, voltage, current float64, batteryLevel int) *types.TelemetryRecord {
	if ids == nil {
		ids = uuid.NewString
	}
	return NewRecordWithID(ids(), timestamp, temperature, voltage, current, batteryLevel)
}

// NewRecordWithID builds a telemetry record with a caller-supplied id,
// used when re-hydrating from storage or replaying an externally
// issued sample.
func NewRecordWithID(id string, timestamp int64, temperature, voltage, current float64, batteryLevel int) *types.TelemetryRecord {
	return &types.TelemetryRecord{
		ID:           id,
		Timestamp:    timestamp,
		Temperature:  temperature,
		Voltage:      voltage,
		Current:      current,
		BatteryLevel: batteryLevel,
	}
}

// Decoder turns raw envelope payloads into telemetry records.
type Decoder struct {
	ids IDSource
}

// NewDecoder creates a decoder. A nil id source defaults to random
// UUIDs.
func NewDecoder(ids IDSource) *Decoder {
	if ids == nil {
		ids = uuid.NewString
	}
	return &Decoder{ids: ids}
}

// sample is the on-wire JSON shape of one decoded frame payload.
type sample struct {
	ID           string  `json:"id,omitempty"`
	Timestamp    int64   `json:"timestamp"`
	Temperature  float64 `json:"temperature"`
	Voltage      float64 `json:"voltage"`
	Current      float64 `json:"current"`
	BatteryLevel int     `json:"battery_level"`
}

// Decode parses an envelope payload into a telemetry record. A payload
// that carries its own id keeps it, so replayed frames re-insert
// idempotently; otherwise a fresh id is minted. A missing timestamp
// falls back to the envelope receive time. Measurement values are not
// range-checked.
func (d *Decoder) Decode(msg *types.TelemetryMessage) (*types.TelemetryRecord, error) {
	var s sample
	if err := json.Unmarshal(msg.Payload, &s); err != nil {
		return nil, fmt.Errorf("failed to decode telemetry payload: %w", err)
	}

	if s.Timestamp == 0 {
		s.Timestamp = msg.Timestamp.Unix()
	}
	if s.ID == "" {
		return NewRecord(d.ids, s.Timestamp, s.Temperature, s.Voltage, s.Current, s.BatteryLevel), nil
	}
	return NewRecordWithID(s.ID, s.Timestamp, s.Temperature, s.Voltage, s.Current, s.BatteryLevel), nil
}
