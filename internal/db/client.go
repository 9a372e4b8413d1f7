package db

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/openorbit/gs-tracker/internal/types"
)

// Client wraps the Postgres/TimescaleDB connection used for job,
// status-history and telemetry persistence.
type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// CreateJob persists an accepted job. The row is immutable; runtime
// state goes to job_status_history.
func (c *Client) CreateJob(job *types.Job, stationID string) error {
	query := `
		INSERT INTO jobs (
			id, satellite_id, start_time, end_time,
			tle0, tle1, tle2,
			rx_frequency, tx_frequency, uplink, ground_station_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var uplink []byte
	if job.HasUplink() {
		uplink = job.Uplink
	}
	_, err := c.db.Exec(query,
		int64(job.ID), job.SatelliteID, job.Start, job.End,
		job.TLE.Tle0, job.TLE.Tle1, job.TLE.Tle2,
		job.RxFrequency, job.TxFrequency, uplink, stationID,
	)
	return err
}

// GetJob retrieves a job by id
func (c *Client) GetJob(id uint64) (*types.Job, error) {
	query := `
		SELECT id, satellite_id, start_time, end_time,
			tle0, tle1, tle2, rx_frequency, tx_frequency, uplink
		FROM jobs
		WHERE id = $1
	`
	var (
		j      types.Job
		jobID  int64
		uplink []byte
	)
	err := c.db.QueryRow(query, int64(id)).Scan(
		&jobID, &j.SatelliteID, &j.Start, &j.End,
		&j.TLE.Tle0, &j.TLE.Tle1, &j.TLE.Tle2,
		&j.RxFrequency, &j.TxFrequency, &uplink,
	)
	if err != nil {
		return nil, err
	}
	j.ID = uint64(jobID)
	j.Uplink = uplink
	return &j, nil
}

// GetActiveJobs retrieves the jobs that have not reached a terminal
// state, used to re-arm the scheduler after a restart.
func (c *Client) GetActiveJobs(stationID string) ([]*types.Job, error) {
	query := `
		SELECT j.id, j.satellite_id, j.start_time, j.end_time,
			j.tle0, j.tle1, j.tle2, j.rx_frequency, j.tx_frequency, j.uplink
		FROM jobs j
		WHERE j.ground_station_id = $1
		AND NOT EXISTS (
			SELECT 1 FROM job_status_history h
			WHERE h.job_id = j.id AND h.status IN ('completed', 'error')
		)
	`
	rows, err := c.db.Query(query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		var (
			j      types.Job
			jobID  int64
			uplink []byte
		)
		if err := rows.Scan(
			&jobID, &j.SatelliteID, &j.Start, &j.End,
			&j.TLE.Tle0, &j.TLE.Tle1, &j.TLE.Tle2,
			&j.RxFrequency, &j.TxFrequency, &uplink,
		); err != nil {
			return nil, err
		}
		j.ID = uint64(jobID)
		j.Uplink = uplink
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// AppendStatusEvent records one lifecycle transition in the audit trail
func (c *Client) AppendStatusEvent(ev *types.StatusEvent) error {
	query := `
		INSERT INTO job_status_history (time, job_id, status, cause)
		VALUES ($1, $2, $3, $4)
	`
	_, err := c.db.Exec(query, ev.Timestamp, int64(ev.JobID), string(ev.Status), ev.Cause)
	return err
}

// GetStatusHistory retrieves the transition history of a job, oldest first
func (c *Client) GetStatusHistory(jobID uint64) ([]*types.StatusEvent, error) {
	query := `
		SELECT time, job_id, status, cause
		FROM job_status_history
		WHERE job_id = $1
		ORDER BY time ASC
	`
	rows, err := c.db.Query(query, int64(jobID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*types.StatusEvent
	for rows.Next() {
		var (
			ev     types.StatusEvent
			id     int64
			status string
		)
		if err := rows.Scan(&ev.Timestamp, &id, &status, &ev.Cause); err != nil {
			return nil, err
		}
		ev.JobID = uint64(id)
		ev.Status = types.JobStatus(status)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// StoreTelemetryRecord persists a decoded sample. jobID is nil for
// frames that could not be correlated with a pass.
func (c *Client) StoreTelemetryRecord(rec *types.TelemetryRecord, stationID string, jobID *uint64) error {
	query := `
		INSERT INTO telemetry_records (
			id, time, epoch, ground_station_id, job_id,
			temperature, voltage, current, battery_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var job sql.NullInt64
	if jobID != nil {
		job = sql.NullInt64{Int64: int64(*jobID), Valid: true}
	}
	_, err := c.db.Exec(query,
		rec.ID, time.Unix(rec.Timestamp, 0).UTC(), rec.Timestamp, stationID, job,
		rec.Temperature, rec.Voltage, rec.Current, rec.BatteryLevel,
	)
	return err
}

// GetTelemetryRecords retrieves the samples correlated with a job,
// oldest first.
func (c *Client) GetTelemetryRecords(jobID uint64) ([]*types.TelemetryRecord, error) {
	query := `
		SELECT id, epoch, temperature, voltage, current, battery_level
		FROM telemetry_records
		WHERE job_id = $1
		ORDER BY epoch ASC
	`
	rows, err := c.db.Query(query, int64(jobID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*types.TelemetryRecord
	for rows.Next() {
		var rec types.TelemetryRecord
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp,
			&rec.Temperature, &rec.Voltage, &rec.Current, &rec.BatteryLevel,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// StoreSystemStats stores pipeline statistics
func (c *Client) StoreSystemStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO system_stats (
			time, total_frames, decoded_records, failed_decodes,
			correlated_records, submitted_jobs, rejected_jobs,
			completed_jobs, failed_jobs, active_jobs, status_counts,
			processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// Convert per-status transition counts
	counts := stats["status_counts"].([5]uint64)
	countsArray := make([]int64, len(counts))
	for i, v := range counts {
		countsArray[i] = int64(v)
	}

	processingTime := stats["processing_time"].(time.Duration).Milliseconds()

	_, err := c.db.Exec(query,
		time.Now(),
		stats["total_frames"],
		stats["decoded_records"],
		stats["failed_decodes"],
		stats["correlated_records"],
		stats["submitted_jobs"],
		stats["rejected_jobs"],
		stats["completed_jobs"],
		stats["failed_jobs"],
		stats["active_jobs"],
		pq.Array(countsArray),
		processingTime,
	)
	return err
}
