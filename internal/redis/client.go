package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openorbit/gs-tracker/internal/types"
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client caches live job state and the latest telemetry per station so
// monitoring consumers do not have to hit Postgres.
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// getData retrieves data from Redis and unmarshals it into the target
func (c *Client) getData(ctx context.Context, key string, target interface{}, dataType string) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil // Data not found
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s data: %w", dataType, err)
	}

	return true, nil
}

// StoreJob caches an accepted job definition
func (c *Client) StoreJob(ctx context.Context, job *types.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := fmt.Sprintf("job:%d", job.ID)
	return c.client.Set(ctx, key, data, 24*time.Hour).Err()
}

// GetJob retrieves a cached job definition; nil if absent
func (c *Client) GetJob(ctx context.Context, id uint64) (*types.Job, error) {
	key := fmt.Sprintf("job:%d", id)
	var job types.Job
	found, err := c.getData(ctx, key, &job, "job")
	if err != nil || !found {
		return nil, err
	}
	return &job, nil
}

// DeleteJob removes a cached job definition
func (c *Client) DeleteJob(ctx context.Context, id uint64) error {
	key := fmt.Sprintf("job:%d", id)
	return c.client.Del(ctx, key).Err()
}

// StoreJobStatus caches the most recent status event for a job
func (c *Client) StoreJobStatus(ctx context.Context, ev *types.StatusEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	key := fmt.Sprintf("jobstatus:%d", ev.JobID)
	return c.client.Set(ctx, key, data, 24*time.Hour).Err()
}

// GetJobStatus retrieves the most recent status event for a job; nil if absent
func (c *Client) GetJobStatus(ctx context.Context, id uint64) (*types.StatusEvent, error) {
	key := fmt.Sprintf("jobstatus:%d", id)
	var ev types.StatusEvent
	found, err := c.getData(ctx, key, &ev, "job status")
	if err != nil || !found {
		return nil, err
	}
	return &ev, nil
}

// DeleteJobStatus removes the cached status of a job
func (c *Client) DeleteJobStatus(ctx context.Context, id uint64) error {
	key := fmt.Sprintf("jobstatus:%d", id)
	return c.client.Del(ctx, key).Err()
}

// StoreLatestRecord caches the latest decoded telemetry sample for a station
func (c *Client) StoreLatestRecord(ctx context.Context, stationID string, rec *types.TelemetryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry record: %w", err)
	}

	key := fmt.Sprintf("telemetry:%s", stationID)
	return c.client.Set(ctx, key, data, 1*time.Hour).Err()
}

// GetLatestRecord retrieves the latest telemetry sample for a station; nil if absent
func (c *Client) GetLatestRecord(ctx context.Context, stationID string) (*types.TelemetryRecord, error) {
	key := fmt.Sprintf("telemetry:%s", stationID)
	var rec types.TelemetryRecord
	found, err := c.getData(ctx, key, &rec, "telemetry record")
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}
