package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openorbit/gs-tracker/internal/config"
	"github.com/openorbit/gs-tracker/internal/nats"
	"github.com/openorbit/gs-tracker/internal/storage"
	"github.com/openorbit/gs-tracker/internal/types"
)

// FrameWriter interface for testability
type FrameWriter interface {
	WriteFrame(frame []byte) error
}

// handleEnvelope appends one telemetry envelope's payload to the raw
// frame log. Frames from every station land in this deployment's log;
// the station tag lives in the filename, not the frame.
func handleEnvelope(w FrameWriter, msg *types.TelemetryMessage) {
	if len(msg.Payload) == 0 {
		return
	}
	if err := w.WriteFrame(msg.Payload); err != nil {
		log.Printf("Failed to write frame: %v", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	store := storage.New(cfg.OutputDir, cfg.StationID)
	if err := store.Start(); err != nil {
		log.Printf("Failed to start storage: %v", err)
		os.Exit(1)
	}

	client, err := nats.New(cfg.NATSURL)
	if err != nil {
		log.Printf("Failed to create NATS client: %v", err)
		if err := store.Stop(); err != nil {
			log.Printf("Failed to stop storage: %v", err)
		}
		os.Exit(1)
	}
	defer client.Close()

	if err := client.SubscribeTelemetry(func(msg *types.TelemetryMessage) {
		handleEnvelope(store, msg)
	}); err != nil {
		log.Printf("Failed to subscribe to telemetry: %v", err)
		client.Close()
		if err := store.Stop(); err != nil {
			log.Printf("Failed to stop storage: %v", err)
		}
		os.Exit(1)
	}

	log.Printf("Logging raw frames to %s", store.CurrentPath())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	if err := store.Stop(); err != nil {
		log.Printf("Failed to stop storage: %v", err)
	}
}
