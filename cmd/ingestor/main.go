package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openorbit/gs-tracker/internal/capture"
	"github.com/openorbit/gs-tracker/internal/config"
	"github.com/openorbit/gs-tracker/internal/nats"
	"github.com/openorbit/gs-tracker/internal/types"
)

// NATSClient interface for testability
type NATSClient interface {
	PublishTelemetry(msg *types.TelemetryMessage) error
	Close()
}

// pumpFrames wraps captured frames in telemetry envelopes and publishes
// them. Returns when the frame channel closes.
func pumpFrames(frames <-chan capture.Frame, client NATSClient, stationID string) {
	for frame := range frames {
		msg := &types.TelemetryMessage{
			GroundStationID: stationID,
			Timestamp:       frame.Timestamp,
			Payload:         frame.Data,
		}
		if err := client.PublishTelemetry(msg); err != nil {
			log.Printf("Failed to publish frame from %s: %v", frame.Source, err)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if len(cfg.Sources) == 0 {
		log.Fatal("SOURCES environment variable is required")
	}

	client, err := nats.New(cfg.NATSURL)
	if err != nil {
		log.Printf("Failed to create NATS client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	capt := capture.New(cfg.Sources)
	capt.Start()

	done := make(chan struct{})
	go func() {
		pumpFrames(capt.Frames(), client, cfg.StationID)
		close(done)
	}()

	log.Printf("Ingesting %d sources for station %s", len(cfg.Sources), cfg.StationID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	capt.Stop()
	<-done
}
