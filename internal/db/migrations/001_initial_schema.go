package migrations

// InitialSchema creates the job, status-history and telemetry tables
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		-- Enable TimescaleDB extension
		CREATE EXTENSION IF NOT EXISTS timescaledb;

		-- Accepted tracking jobs. Rows are immutable; runtime state
		-- lives in job_status_history.
		CREATE TABLE IF NOT EXISTS jobs (
			id BIGINT PRIMARY KEY,
			satellite_id TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			tle0 TEXT NOT NULL,
			tle1 CHAR(69) NOT NULL,
			tle2 CHAR(69) NOT NULL,
			rx_frequency DOUBLE PRECISION NOT NULL,
			tx_frequency DOUBLE PRECISION NOT NULL,
			uplink BYTEA,
			ground_station_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_station ON jobs (ground_station_id);
		CREATE INDEX IF NOT EXISTS idx_jobs_window ON jobs (start_time, end_time);

		-- One row per lifecycle transition (audit trail)
		CREATE TABLE IF NOT EXISTS job_status_history (
			time TIMESTAMPTZ NOT NULL,
			job_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			cause TEXT
		);

		SELECT create_hypertable('job_status_history', 'time');
		CREATE INDEX IF NOT EXISTS idx_status_history_job ON job_status_history (job_id);

		-- Decoded telemetry samples; job_id is NULL for frames that
		-- could not be correlated with a pass
		CREATE TABLE IF NOT EXISTS telemetry_records (
			id TEXT NOT NULL,
			time TIMESTAMPTZ NOT NULL,
			epoch BIGINT NOT NULL,
			ground_station_id TEXT NOT NULL,
			job_id BIGINT,
			temperature DOUBLE PRECISION,
			voltage DOUBLE PRECISION,
			current DOUBLE PRECISION,
			battery_level INTEGER
		);

		SELECT create_hypertable('telemetry_records', 'time');
		CREATE INDEX IF NOT EXISTS idx_telemetry_station ON telemetry_records (ground_station_id);
		CREATE INDEX IF NOT EXISTS idx_telemetry_job ON telemetry_records (job_id);

		-- Pipeline statistics
		CREATE TABLE IF NOT EXISTS system_stats (
			time TIMESTAMPTZ NOT NULL,
			total_frames BIGINT NOT NULL,
			decoded_records BIGINT NOT NULL,
			failed_decodes BIGINT NOT NULL,
			correlated_records BIGINT NOT NULL,
			submitted_jobs BIGINT NOT NULL,
			rejected_jobs BIGINT NOT NULL,
			completed_jobs BIGINT NOT NULL,
			failed_jobs BIGINT NOT NULL,
			active_jobs BIGINT NOT NULL,
			status_counts BIGINT[] NOT NULL,
			processing_time_ms BIGINT NOT NULL
		);

		SELECT create_hypertable('system_stats', 'time');
		CREATE INDEX IF NOT EXISTS idx_system_stats_time ON system_stats (time DESC);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS system_stats;
		DROP TABLE IF EXISTS telemetry_records;
		DROP TABLE IF EXISTS job_status_history;
		DROP TABLE IF EXISTS jobs;
	`,
}
