package nats

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	natscontainer "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/openorbit/gs-tracker/internal/types"
)

func startNATSContainer(t *testing.T) *natscontainer.NATSContainer {
	t.Helper()

	container, err := natscontainer.Run(context.Background(), "nats:2.9-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server is ready"),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start NATS container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate NATS container: %v", err)
		}
	})
	return container
}

func TestClient_Integration_Connection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container := startNATSContainer(t)

	natsURL, err := container.ConnectionString(context.Background())
	if err != nil {
		t.Fatalf("Failed to get NATS connection string: %v", err)
	}

	client, err := New(natsURL)
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	if client.conn == nil {
		t.Error("Expected connection to be initialized")
	}
	if client.js == nil {
		t.Error("Expected JetStream context to be initialized")
	}
}

func TestClient_Integration_TelemetryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container := startNATSContainer(t)

	natsURL, err := container.ConnectionString(context.Background())
	if err != nil {
		t.Fatalf("Failed to get NATS connection string: %v", err)
	}

	client, err := New(natsURL)
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	received := make(chan *types.TelemetryMessage, 1)
	if err := client.SubscribeTelemetry(func(msg *types.TelemetryMessage) {
		received <- msg
	}); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	// Give subscription time to establish
	time.Sleep(100 * time.Millisecond)

	sent := &types.TelemetryMessage{
		GroundStationID: "gs-test",
		Timestamp:       time.Now().UTC(),
		Payload:         []byte(`{"timestamp":1756000000,"temperature":21.5,"voltage":3.9,"current":0.4,"battery_level":88}`),
	}
	if err := client.PublishTelemetry(sent); err != nil {
		t.Fatalf("Failed to publish telemetry: %v", err)
	}

	select {
	case got := <-received:
		if got.GroundStationID != sent.GroundStationID {
			t.Errorf("station = %q, want %q", got.GroundStationID, sent.GroundStationID)
		}
		if string(got.Payload) != string(sent.Payload) {
			t.Errorf("payload = %s, want %s", got.Payload, sent.Payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for telemetry message")
	}
}

func TestClient_Integration_JobAndStatusRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	container := startNATSContainer(t)

	natsURL, err := container.ConnectionString(context.Background())
	if err != nil {
		t.Fatalf("Failed to get NATS connection string: %v", err)
	}

	client, err := New(natsURL)
	if err != nil {
		t.Fatalf("Failed to create NATS client: %v", err)
	}
	defer client.Close()

	jobs := make(chan *types.Job, 1)
	if err := client.SubscribeJobs(func(job *types.Job) {
		jobs <- job
	}); err != nil {
		t.Fatalf("Failed to subscribe to jobs: %v", err)
	}

	events := make(chan *types.StatusEvent, 1)
	if err := client.SubscribeStatus(func(ev *types.StatusEvent) {
		events <- ev
	}); err != nil {
		t.Fatalf("Failed to subscribe to status events: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	job := &types.Job{
		ID:          7,
		SatelliteID: "ISS (ZARYA)",
		Start:       start,
		End:         start.Add(10 * time.Minute),
		RxFrequency: 145800000,
		TxFrequency: 437500000,
	}
	if err := client.PublishJob(job); err != nil {
		t.Fatalf("Failed to publish job: %v", err)
	}

	select {
	case got := <-jobs:
		if got.ID != job.ID || got.SatelliteID != job.SatelliteID {
			t.Errorf("job = %+v, want %+v", got, job)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for job submission")
	}

	ev := &types.StatusEvent{
		JobID:     7,
		Status:    types.StatusScheduled,
		Timestamp: time.Now().UTC(),
	}
	if err := client.PublishStatus(ev); err != nil {
		t.Fatalf("Failed to publish status event: %v", err)
	}

	select {
	case got := <-events:
		if got.JobID != ev.JobID || got.Status != ev.Status {
			t.Errorf("event = %+v, want %+v", got, ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for status event")
	}
}
