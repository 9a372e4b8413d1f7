package migrations

// RetentionPolicies sets hypertable retention and rollup views
var RetentionPolicies = &Migration{
	ID:   "002_retention_policies",
	Name: "002_retention_policies",
	UpSQL: `
	-- Raw telemetry is large; keep 30 days
	SELECT add_retention_policy('telemetry_records', INTERVAL '30 days');

	-- Status history is the audit trail; keep a year
	SELECT add_retention_policy('job_status_history', INTERVAL '365 days');

	-- Pipeline stats
	SELECT add_retention_policy('system_stats', INTERVAL '90 days');

	-- Daily telemetry volume per station
	CREATE MATERIALIZED VIEW IF NOT EXISTS telemetry_daily
	WITH (timescaledb.continuous) AS
	SELECT
		time_bucket('1 day', time) AS day,
		ground_station_id,
		COUNT(*) AS record_count,
		AVG(temperature) AS avg_temperature,
		AVG(voltage) AS avg_voltage,
		MIN(battery_level) AS min_battery_level
	FROM telemetry_records
	GROUP BY day, ground_station_id
	WITH NO DATA;

	-- Daily pass outcomes
	CREATE MATERIALIZED VIEW IF NOT EXISTS job_outcomes_daily
	WITH (timescaledb.continuous) AS
	SELECT
		time_bucket('1 day', time) AS day,
		status,
		COUNT(*) AS transition_count
	FROM job_status_history
	GROUP BY day, status
	WITH NO DATA;
	`,
	DownSQL: `
	DROP MATERIALIZED VIEW IF EXISTS job_outcomes_daily;
	DROP MATERIALIZED VIEW IF EXISTS telemetry_daily;
	SELECT remove_retention_policy('system_stats');
	SELECT remove_retention_policy('job_status_history');
	SELECT remove_retention_policy('telemetry_records');
	`,
}
