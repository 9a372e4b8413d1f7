package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestJob_SubmissionPayload(t *testing.T) {
	payload := `{
		"id": 12345,
		"satellite_id": "ISS (ZARYA)",
		"start": "2025-09-19T12:00:00Z",
		"end": "2025-09-19T12:15:00Z",
		"tle": {
			"tle0": "ISS (ZARYA)",
			"tle1": "1 25544U 98067A   25235.75642456  .00011222  00000+0  20339-3 0  9993",
			"tle2": "2 25544  51.6355 332.1708 0003307 260.2831  99.7785 15.50129787525648"
		},
		"rx_frequency": 145800000,
		"tx_frequency": 437500000,
		"uplink": [72, 101, 108, 108, 111]
	}`

	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("Failed to unmarshal job submission: %v", err)
	}

	if job.ID != 12345 {
		t.Errorf("ID = %d, want 12345", job.ID)
	}
	if job.SatelliteID != "ISS (ZARYA)" {
		t.Errorf("SatelliteID = %q, want %q", job.SatelliteID, "ISS (ZARYA)")
	}
	if !job.Start.Equal(time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want 2025-09-19T12:00:00Z", job.Start)
	}
	if string(job.Uplink) != "Hello" {
		t.Errorf("Uplink = %q, want %q", string(job.Uplink), "Hello")
	}
	if !job.HasUplink() {
		t.Error("HasUplink() = false for a job with uplink data")
	}
}

func TestUplinkPayload_RoundTrip(t *testing.T) {
	job := Job{ID: 1, Uplink: UplinkPayload{0, 127, 255}}

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Failed to marshal job: %v", err)
	}
	if !strings.Contains(string(data), `"uplink":[0,127,255]`) {
		t.Errorf("Uplink not encoded as a number array: %s", data)
	}

	var decoded Job
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal job: %v", err)
	}
	if string(decoded.Uplink) != string(job.Uplink) {
		t.Errorf("Uplink round trip mismatch: got %v, want %v", decoded.Uplink, job.Uplink)
	}
}

func TestUplinkPayload_Omitted(t *testing.T) {
	data, err := json.Marshal(Job{ID: 2})
	if err != nil {
		t.Fatalf("Failed to marshal job: %v", err)
	}
	if strings.Contains(string(data), "uplink") {
		t.Errorf("Absent uplink should be omitted, got: %s", data)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		t.Fatalf("Failed to unmarshal job: %v", err)
	}
	if job.HasUplink() {
		t.Error("HasUplink() = true for a receive-only job")
	}
}

func TestUplinkPayload_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "value above 255", data: `[0, 256]`},
		{name: "negative value", data: `[-1]`},
		{name: "not an array", data: `"SGVsbG8="`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p UplinkPayload
			if err := json.Unmarshal([]byte(tt.data), &p); err == nil {
				t.Errorf("Unmarshal(%s) expected error, got none", tt.data)
			}
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		StatusReceived:  false,
		StatusScheduled: false,
		StatusStarted:   false,
		StatusCompleted: true,
		StatusError:     true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestStatusEvent_JSON(t *testing.T) {
	ev := StatusEvent{
		JobID:     12345,
		Status:    StatusError,
		Cause:     "hardware acquisition failed",
		Timestamp: time.Date(2025, 9, 19, 12, 1, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Failed to marshal StatusEvent: %v", err)
	}

	var decoded StatusEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal StatusEvent: %v", err)
	}
	if decoded.JobID != ev.JobID || decoded.Status != ev.Status || decoded.Cause != ev.Cause {
		t.Errorf("StatusEvent round trip mismatch: got %+v, want %+v", decoded, ev)
	}

	// Cause is omitted on non-error transitions.
	data, err = json.Marshal(StatusEvent{JobID: 1, Status: StatusScheduled})
	if err != nil {
		t.Fatalf("Failed to marshal StatusEvent: %v", err)
	}
	if strings.Contains(string(data), "cause") {
		t.Errorf("Empty cause should be omitted, got: %s", data)
	}
}
