package store

// Schema is the report history schema. report_json holds the full report as
// served; the violation rows exist for aggregate queries.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
	id                    TEXT PRIMARY KEY,
	target_level          TEXT NOT NULL,
	status                TEXT NOT NULL,
	compliance_percentage REAL NOT NULL,
	required_criteria     INTEGER NOT NULL,
	violated_criteria     INTEGER NOT NULL,
	total_violations      INTEGER NOT NULL,
	source                TEXT NOT NULL DEFAULT '',
	summary               TEXT NOT NULL DEFAULT '',
	report_json           TEXT NOT NULL,
	created_at            INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_source ON reports(source);

CREATE TABLE IF NOT EXISTS report_violations (
	report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	criterion TEXT NOT NULL,
	rule_id   TEXT NOT NULL,
	severity  TEXT NOT NULL,
	message   TEXT NOT NULL,
	PRIMARY KEY (report_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_violations_criterion ON report_violations(criterion);

CREATE TABLE IF NOT EXISTS audit_jobs (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	target_level TEXT NOT NULL,
	status       TEXT NOT NULL,
	report_id    TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	attempts     INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
`
