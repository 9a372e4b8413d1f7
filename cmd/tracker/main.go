package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openorbit/gs-tracker/internal/config"
	"github.com/openorbit/gs-tracker/internal/db"
	"github.com/openorbit/gs-tracker/internal/jobs"
	"github.com/openorbit/gs-tracker/internal/nats"
	"github.com/openorbit/gs-tracker/internal/redis"
	"github.com/openorbit/gs-tracker/internal/stats"
	"github.com/openorbit/gs-tracker/internal/telemetry"
	"github.com/openorbit/gs-tracker/internal/types"
)

// DBClient interface for testability
type DBClient interface {
	CreateJob(job *types.Job, stationID string) error
	GetActiveJobs(stationID string) ([]*types.Job, error)
	AppendStatusEvent(ev *types.StatusEvent) error
	StoreTelemetryRecord(rec *types.TelemetryRecord, stationID string, jobID *uint64) error
	Close() error
}

// CacheClient interface for testability
type CacheClient interface {
	StoreJob(ctx context.Context, job *types.Job) error
	DeleteJob(ctx context.Context, id uint64) error
	StoreJobStatus(ctx context.Context, ev *types.StatusEvent) error
	DeleteJobStatus(ctx context.Context, id uint64) error
	StoreLatestRecord(ctx context.Context, stationID string, rec *types.TelemetryRecord) error
	Close() error
}

// StatusPublisher interface for testability
type StatusPublisher interface {
	PublishStatus(ev *types.StatusEvent) error
}

// PassTracker owns the live jobs of one ground station: it validates
// and schedules submissions, drives the pass lifecycle off the clock
// and correlates incoming telemetry with the active pass.
type PassTracker struct {
	db         DBClient
	cache      CacheClient
	publisher  StatusPublisher
	stationID  string
	registry   *jobs.Registry
	statuses   *jobs.StatusStore
	decoder    *telemetry.Decoder
	correlator *telemetry.Correlator
	stats      *stats.Stats
	now        func() time.Time
}

// NewPassTracker creates a pass tracker. A nil clock falls back to UTC
// wall time; tests inject a fixed clock to step through a pass.
func NewPassTracker(dbClient DBClient, cache CacheClient, publisher StatusPublisher, stationID string, now func() time.Time) *PassTracker {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &PassTracker{
		db:         dbClient,
		cache:      cache,
		publisher:  publisher,
		stationID:  stationID,
		registry:   jobs.NewRegistry(),
		statuses:   jobs.NewStatusStore(now),
		decoder:    telemetry.NewDecoder(nil),
		correlator: telemetry.NewCorrelator(stationID),
		stats:      stats.New(),
		now:        now,
	}
}

// Start restores non-terminal jobs from the database and re-arms the
// scheduler for them.
func (t *PassTracker) Start(ctx context.Context) error {
	restored, err := t.db.GetActiveJobs(t.stationID)
	if err != nil {
		return fmt.Errorf("failed to load active jobs: %w", err)
	}

	for _, job := range restored {
		if err := t.registry.Add(job); err != nil {
			log.Printf("Warning: Skipping restored job %d: %v", job.ID, err)
			continue
		}
		if _, err := t.statuses.Register(job.ID); err != nil {
			t.registry.Remove(job.ID)
			log.Printf("Warning: Skipping restored job %d: %v", job.ID, err)
			continue
		}
		if err := t.cache.StoreJob(ctx, job); err != nil {
			log.Printf("Warning: Failed to cache restored job %d: %v", job.ID, err)
		}
		t.trySchedule(job)
	}
	if len(restored) > 0 {
		log.Printf("Restored %d active jobs", len(restored))
	}
	t.stats.SetActiveJobs(uint64(t.registry.Len()))

	// Set database client for statistics (only if it's the concrete type)
	if dbClient, ok := t.db.(*db.Client); ok {
		t.stats.SetDB(dbClient)
	}

	go t.logStats(ctx)
	go t.stats.StartPersistence(ctx, 5*time.Minute)

	return nil
}

// HandleSubmission validates a submitted job and either schedules it
// or rejects it. Rejection before registration leaves no trace; a
// window conflict after registration is recorded as an Error
// transition with its cause.
func (t *PassTracker) HandleSubmission(job *types.Job) error {
	t.stats.IncrementSubmittedJobs()

	if err := jobs.Validate(job); err != nil {
		t.stats.IncrementRejectedJobs()
		return fmt.Errorf("job %d rejected: %w", job.ID, err)
	}

	if err := t.registry.Add(job); err != nil {
		t.stats.IncrementRejectedJobs()
		return fmt.Errorf("job %d rejected: %w", job.ID, err)
	}

	if err := t.db.CreateJob(job, t.stationID); err != nil {
		t.registry.Remove(job.ID)
		t.stats.IncrementRejectedJobs()
		return fmt.Errorf("failed to persist job %d: %w", job.ID, err)
	}

	ev, err := t.statuses.Register(job.ID)
	if err != nil {
		t.registry.Remove(job.ID)
		return fmt.Errorf("failed to register job %d: %w", job.ID, err)
	}
	t.persistEvent(ev)

	if err := t.cache.StoreJob(context.Background(), job); err != nil {
		log.Printf("Warning: Failed to cache job %d: %v", job.ID, err)
	}

	t.trySchedule(job)
	t.stats.SetActiveJobs(uint64(t.registry.Len()))
	return nil
}

// trySchedule moves a Received job to Scheduled, or to Error when
// another Scheduled or Started job already holds the station during
// its window.
func (t *PassTracker) trySchedule(job *types.Job) {
	if conflictID, ok := jobs.FindConflict(job, t.registry.All(), t.statuses.Status); ok {
		cause := fmt.Sprintf("window conflict with job %d", conflictID)
		if err := t.recordTransition(job.ID, types.StatusError, cause); err != nil {
			log.Printf("Failed to fail job %d: %v", job.ID, err)
		}
		return
	}

	if err := t.recordTransition(job.ID, types.StatusScheduled, ""); err != nil {
		log.Printf("Failed to schedule job %d: %v", job.ID, err)
	}
}

// Tick advances the lifecycle of every live job against the clock:
// Scheduled jobs start when their window opens, Started jobs complete
// when it closes.
func (t *PassTracker) Tick() {
	now := t.now()
	for _, job := range t.registry.All() {
		status, ok := t.statuses.Status(job.ID)
		if !ok {
			continue
		}

		switch status {
		case types.StatusScheduled:
			if !now.Before(job.Start) {
				if err := t.recordTransition(job.ID, types.StatusStarted, ""); err != nil {
					log.Printf("Failed to start job %d: %v", job.ID, err)
				}
			}
		case types.StatusStarted:
			if now.After(job.End) {
				if err := t.recordTransition(job.ID, types.StatusCompleted, ""); err != nil {
					log.Printf("Failed to complete job %d: %v", job.ID, err)
				}
			}
		}
	}
	t.stats.SetActiveJobs(uint64(t.registry.Len()))
}

// recordTransition applies a lifecycle transition and fans the emitted
// event out to the database, the cache and the status subject. A
// terminal transition releases the job's id.
func (t *PassTracker) recordTransition(id uint64, to types.JobStatus, cause string) error {
	ev, err := t.statuses.Transition(id, to, cause)
	if err != nil {
		return err
	}
	t.persistEvent(ev)

	switch to {
	case types.StatusCompleted:
		t.stats.IncrementCompletedJobs()
		t.finalize(id)
	case types.StatusError:
		t.stats.IncrementFailedJobs()
		t.finalize(id)
	}
	return nil
}

// persistEvent records one status event in the audit trail, the cache
// and the status subject. Cache and publish failures are logged, not
// fatal: the database row is the source of truth.
func (t *PassTracker) persistEvent(ev *types.StatusEvent) {
	t.stats.CountTransition(ev.Status)

	if err := t.db.AppendStatusEvent(ev); err != nil {
		log.Printf("Failed to persist status event for job %d: %v", ev.JobID, err)
	}
	if err := t.cache.StoreJobStatus(context.Background(), ev); err != nil {
		log.Printf("Warning: Failed to cache status for job %d: %v", ev.JobID, err)
	}
	if err := t.publisher.PublishStatus(ev); err != nil {
		log.Printf("Warning: Failed to publish status for job %d: %v", ev.JobID, err)
	}
}

// finalize drops a terminal job from the live set. Its definition and
// history survive in the database.
func (t *PassTracker) finalize(id uint64) {
	t.registry.Remove(id)
	t.statuses.Drop(id)

	if err := t.cache.DeleteJob(context.Background(), id); err != nil {
		log.Printf("Warning: Failed to evict job %d from cache: %v", id, err)
	}
	if err := t.cache.DeleteJobStatus(context.Background(), id); err != nil {
		log.Printf("Warning: Failed to evict status of job %d from cache: %v", id, err)
	}
}

// HandleTelemetry decodes a telemetry envelope and stores the sample,
// attached to the job whose active pass covers it when one exists.
func (t *PassTracker) HandleTelemetry(msg *types.TelemetryMessage) error {
	start := time.Now()
	t.stats.IncrementTotalFrames()
	t.stats.UpdateLastFrameTime()

	rec, err := t.decoder.Decode(msg)
	if err != nil {
		t.stats.IncrementFailedDecodes()
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	t.stats.IncrementDecodedRecords()

	var jobID *uint64
	if job, ok := t.correlator.Match(msg, t.registry.All(), t.statuses.Status); ok {
		id := job.ID
		jobID = &id
		t.stats.IncrementCorrelatedRecords()
	} else {
		t.stats.IncrementUncorrelatedFrames()
	}

	if err := t.db.StoreTelemetryRecord(rec, msg.GroundStationID, jobID); err != nil {
		return fmt.Errorf("failed to store telemetry record: %w", err)
	}
	if err := t.cache.StoreLatestRecord(context.Background(), msg.GroundStationID, rec); err != nil {
		log.Printf("Warning: Failed to cache latest record: %v", err)
	}

	t.stats.AddProcessingTime(time.Since(start))
	return nil
}

// run drives the lifecycle clock until the context is cancelled
func (t *PassTracker) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// logStats periodically logs statistics
func (t *PassTracker) logStats(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("Statistics: %s", t.stats)
		}
	}
}

// createClients creates all the required clients for the application
func createClients(cfg *config.Config) (*nats.Client, *db.Client, *redis.Client, error) {
	natsClient, err := nats.New(cfg.NATSURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		natsClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	redisClient, err := redis.New(cfg.RedisAddr)
	if err != nil {
		natsClient.Close()
		if closeErr := dbClient.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", closeErr)
		}
		return nil, nil, nil, fmt.Errorf("failed to create Redis client: %w", err)
	}

	return natsClient, dbClient, redisClient, nil
}

// setupSubscriptions wires the job submission and telemetry subjects
// into the tracker.
func setupSubscriptions(natsClient *nats.Client, tracker *PassTracker) error {
	if err := natsClient.SubscribeJobs(func(job *types.Job) {
		if err := tracker.HandleSubmission(job); err != nil {
			log.Printf("Submission failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to subscribe to job submissions: %w", err)
	}

	if err := natsClient.SubscribeTelemetry(func(msg *types.TelemetryMessage) {
		if err := tracker.HandleTelemetry(msg); err != nil {
			log.Printf("Failed to process telemetry: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to subscribe to telemetry: %w", err)
	}
	return nil
}

// waitForShutdown waits for shutdown signals and handles cleanup
func waitForShutdown(cancel context.CancelFunc, natsClient *nats.Client, dbClient *db.Client, redisClient *redis.Client) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	natsClient.Close()
	if err := dbClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
	}
	if err := redisClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	natsClient, dbClient, redisClient, err := createClients(cfg)
	if err != nil {
		log.Printf("Failed to create clients: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := NewPassTracker(dbClient, redisClient, natsClient, cfg.StationID, nil)
	if err := tracker.Start(ctx); err != nil {
		log.Printf("Failed to start pass tracker: %v", err)
		natsClient.Close()
		if err := dbClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
		}
		if err := redisClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
		}
		os.Exit(1)
	}

	if err := setupSubscriptions(natsClient, tracker); err != nil {
		log.Printf("Failed to setup NATS subscriptions: %v", err)
		natsClient.Close()
		if err := dbClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing dbClient: %v\n", err)
		}
		if err := redisClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing redisClient: %v\n", err)
		}
		os.Exit(1)
	}

	go tracker.run(ctx, time.Second)

	log.Printf("Pass tracker started for station %s", cfg.StationID)
	waitForShutdown(cancel, natsClient, dbClient, redisClient)
}
