package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/openorbit/gs-tracker/internal/types"
)

// TLE lines for the ISS, valid length and checksums.
const (
	TestTle0 = "ISS (ZARYA)"
	TestTle1 = "1 25544U 98067A   25235.75642456  .00011222  00000+0  20339-3 0  9993"
	TestTle2 = "2 25544  51.6355 332.1708 0003307 260.2831  99.7785 15.50129787525648"
)

// MockJob creates a valid tracking job for testing
func MockJob(id uint64, start, end time.Time) *types.Job {
	return &types.Job{
		ID:          id,
		SatelliteID: TestTle0,
		Start:       start,
		End:         end,
		TLE:         types.TLEData{Tle0: TestTle0, Tle1: TestTle1, Tle2: TestTle2},
		RxFrequency: 145800000,
		TxFrequency: 437500000,
	}
}

// MockTelemetryMessage creates a telemetry envelope with a decodable
// JSON payload for testing
func MockTelemetryMessage(stationID string, ts time.Time) *types.TelemetryMessage {
	payload := fmt.Sprintf(
		`{"timestamp":%d,"temperature":21.5,"voltage":3.9,"current":0.42,"battery_level":87}`,
		ts.Unix(),
	)
	return &types.TelemetryMessage{
		GroundStationID: stationID,
		Timestamp:       ts,
		Payload:         []byte(payload),
	}
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
