package main

import (
	"errors"
	"testing"
	"time"

	"github.com/openorbit/gs-tracker/internal/types"
)

// mockWriter implements FrameWriter for testing
type mockWriter struct {
	frames   [][]byte
	writeErr error
}

func (m *mockWriter) WriteFrame(frame []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.frames = append(m.frames, frame)
	return nil
}

func TestHandleEnvelope_WritesPayload(t *testing.T) {
	w := &mockWriter{}
	msg := &types.TelemetryMessage{
		GroundStationID: "gs-1",
		Timestamp:       time.Now().UTC(),
		Payload:         []byte(`{"voltage":3.9}`),
	}

	handleEnvelope(w, msg)

	if len(w.frames) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(w.frames))
	}
	if string(w.frames[0]) != `{"voltage":3.9}` {
		t.Errorf("frame = %s", w.frames[0])
	}
}

func TestHandleEnvelope_SkipsEmptyPayload(t *testing.T) {
	w := &mockWriter{}
	handleEnvelope(w, &types.TelemetryMessage{GroundStationID: "gs-1"})

	if len(w.frames) != 0 {
		t.Errorf("wrote %d frames, want 0", len(w.frames))
	}
}

func TestHandleEnvelope_WriteErrorDoesNotPanic(t *testing.T) {
	w := &mockWriter{writeErr: errors.New("disk full")}
	msg := &types.TelemetryMessage{
		GroundStationID: "gs-1",
		Payload:         []byte("x"),
	}

	// Errors are logged, not propagated
	handleEnvelope(w, msg)
}
