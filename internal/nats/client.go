package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/openorbit/gs-tracker/internal/types"
)

const (
	// SubjectTelemetryRaw carries transport envelopes for received frames
	SubjectTelemetryRaw = "telemetry.raw"
	// SubjectJobSubmit carries job submission payloads
	SubjectJobSubmit = "jobs.submit"
	// SubjectJobStatus carries one status event per lifecycle transition
	SubjectJobStatus = "jobs.status"
)

// Client represents a NATS client
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a new NATS client and ensures the telemetry and job
// streams exist.
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	streams := []*nats.StreamConfig{
		{
			Name:     "TELEMETRY_RAW",
			Subjects: []string{SubjectTelemetryRaw},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
		},
		{
			Name:     "JOBS",
			Subjects: []string{SubjectJobSubmit, SubjectJobStatus},
			Storage:  nats.FileStorage,
			MaxAge:   7 * 24 * time.Hour,
		},
	}
	for _, cfg := range streams {
		if _, err := js.AddStream(cfg); err != nil && !strings.Contains(err.Error(), "stream name already in use") {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
	}

	return &Client{
		conn: nc,
		js:   js,
	}, nil
}

// PublishTelemetry publishes a telemetry envelope
func (c *Client) PublishTelemetry(msg *types.TelemetryMessage) error {
	return c.publish(SubjectTelemetryRaw, msg)
}

// PublishJob publishes a job submission payload
func (c *Client) PublishJob(job *types.Job) error {
	return c.publish(SubjectJobSubmit, job)
}

// PublishStatus publishes a lifecycle status event
func (c *Client) PublishStatus(ev *types.StatusEvent) error {
	return c.publish(SubjectJobStatus, ev)
}

func (c *Client) publish(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := c.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// SubscribeTelemetry subscribes to telemetry envelopes
func (c *Client) SubscribeTelemetry(handler func(*types.TelemetryMessage)) error {
	_, err := c.js.Subscribe(SubjectTelemetryRaw, func(msg *nats.Msg) {
		var tm types.TelemetryMessage
		if err := json.Unmarshal(msg.Data, &tm); err != nil {
			log.Printf("Error unmarshaling telemetry envelope: %v", err)
			return
		}
		handler(&tm)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectTelemetryRaw, err)
	}
	return nil
}

// SubscribeJobs subscribes to job submissions
func (c *Client) SubscribeJobs(handler func(*types.Job)) error {
	_, err := c.js.Subscribe(SubjectJobSubmit, func(msg *nats.Msg) {
		var job types.Job
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Printf("Error unmarshaling job submission: %v", err)
			return
		}
		handler(&job)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectJobSubmit, err)
	}
	return nil
}

// SubscribeStatus subscribes to job status events
func (c *Client) SubscribeStatus(handler func(*types.StatusEvent)) error {
	_, err := c.js.Subscribe(SubjectJobStatus, func(msg *nats.Msg) {
		var ev types.StatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Printf("Error unmarshaling status event: %v", err)
			return
		}
		handler(&ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectJobStatus, err)
	}
	return nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
