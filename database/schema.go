package database

// lakeSchema holds the DuckDB event-history tables. The uniqueness of
// (plan_date, line_id, shift_id, sequence) lives here; the capacity
// allocator relies on it instead of taking locks.
const lakeSchema = `
CREATE TABLE IF NOT EXISTS production_plans (
	id BIGINT PRIMARY KEY,
	plant_id BIGINT,
	line_id BIGINT NOT NULL,
	shift_id BIGINT NOT NULL,
	plan_date VARCHAR NOT NULL,
	sequence INTEGER NOT NULL,
	part_no VARCHAR,
	cycle_time_sec INTEGER NOT NULL,
	planned_qty INTEGER NOT NULL,
	actual_qty INTEGER DEFAULT 0,
	ng_qty INTEGER DEFAULT 0,
	status VARCHAR NOT NULL,
	started_at TIMESTAMP,
	completed_at TIMESTAMP,
	deleted_at TIMESTAMP,
	UNIQUE (plan_date, line_id, shift_id, sequence)
);

CREATE TABLE IF NOT EXISTS downtime_events (
	id BIGINT PRIMARY KEY,
	plan_id BIGINT NOT NULL,
	kind VARCHAR NOT NULL,
	start_time TIMESTAMP,
	end_time TIMESTAMP,
	duration_sec INTEGER NOT NULL,
	category_id BIGINT DEFAULT 0,
	machine_id BIGINT DEFAULT 0,
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS planned_downtime_events (
	id BIGINT PRIMARY KEY,
	plan_id BIGINT NOT NULL,
	category_id BIGINT DEFAULT 0,
	start_time TIMESTAMP,
	duration_sec INTEGER NOT NULL,
	over_pdt_duration_sec INTEGER DEFAULT 0,
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rejection_events (
	id BIGINT PRIMARY KEY,
	plan_id BIGINT NOT NULL,
	occurred_at TIMESTAMP,
	qty INTEGER NOT NULL,
	criteria_id BIGINT DEFAULT 0,
	deleted_at TIMESTAMP
);
`

// appSchema holds the SQLite master-data and derived tables. The two
// derived tables key on plan_id so recomputation is an overwrite, never
// a second row.
const appSchema = `
CREATE TABLE IF NOT EXISTS lines (
	id INTEGER PRIMARY KEY,
	plant_id INTEGER,
	name TEXT NOT NULL,
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS shifts (
	id INTEGER PRIMARY KEY,
	line_id INTEGER NOT NULL,
	number INTEGER NOT NULL,
	work_start TEXT NOT NULL,
	work_end TEXT NOT NULL,
	break1_start TEXT DEFAULT '',
	break1_end TEXT DEFAULT '',
	break2_start TEXT DEFAULT '',
	break2_end TEXT DEFAULT '',
	break3_start TEXT DEFAULT '',
	break3_end TEXT DEFAULT '',
	loading_time_sec INTEGER NOT NULL DEFAULT 0,
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS downtime_categories (
	id INTEGER PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	default_duration_min INTEGER DEFAULT 0,
	department TEXT DEFAULT '',
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rejection_criteria (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT DEFAULT '',
	deleted_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS loss_time_summaries (
	plan_id INTEGER PRIMARY KEY,
	plan_working_sec INTEGER NOT NULL,
	actual_working_sec INTEGER NOT NULL,
	pdt_sec INTEGER NOT NULL,
	updt_sec INTEGER NOT NULL,
	over_pdt_sec INTEGER NOT NULL DEFAULT 0,
	small_stop_freq INTEGER NOT NULL DEFAULT 0,
	computed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS oee_records (
	plan_id INTEGER PRIMARY KEY,
	availability REAL NOT NULL,
	performance REAL NOT NULL,
	quality REAL NOT NULL,
	oee REAL NOT NULL,
	computed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS recompute_jobs (
	job_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	error_message TEXT DEFAULT '',
	total_plans INTEGER DEFAULT 0,
	done_plans INTEGER DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
