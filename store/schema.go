package store

// Schema contains the complete DDL for the gcdserver tables.
//
// Calibration keys on (dom_id, timestamp): every POST inserts a new version
// and the full history stays queryable, which is what the snapshot resolver
// needs. All other record kinds are single-slot by their natural key.
const Schema = `
-- Calibration versions: one row per (DOM, timestamp), full history retained
CREATE TABLE IF NOT EXISTS calibration (
    dom_id          INTEGER NOT NULL,
    domcal          TEXT NOT NULL,
    timestamp       INTEGER NOT NULL,
    UNIQUE(dom_id, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_calibration_dom ON calibration(dom_id, timestamp DESC);

-- DOM positions, keyed by (string, position)
CREATE TABLE IF NOT EXISTS geometry (
    string          INTEGER NOT NULL,
    position        INTEGER NOT NULL,
    x               REAL NOT NULL,
    y               REAL NOT NULL,
    z               REAL NOT NULL,
    timestamp       INTEGER NOT NULL,
    PRIMARY KEY (string, position)
);

-- Per-run operational state of each DOM
CREATE TABLE IF NOT EXISTS detector_status (
    dom_id          INTEGER NOT NULL,
    run_number      INTEGER NOT NULL,
    status          TEXT NOT NULL,
    is_bad          INTEGER NOT NULL DEFAULT 0,
    timestamp       INTEGER NOT NULL,
    PRIMARY KEY (dom_id, run_number)
);
CREATE INDEX IF NOT EXISTS idx_status_run ON detector_status(run_number);
CREATE INDEX IF NOT EXISTS idx_status_bad ON detector_status(is_bad) WHERE is_bad = 1;

-- Run windows (run metadata): the [start, end) interval of each run
CREATE TABLE IF NOT EXISTS run_windows (
    run_number          INTEGER PRIMARY KEY,
    start_time          INTEGER NOT NULL,
    end_time            INTEGER,
    configuration_name  TEXT NOT NULL DEFAULT '',
    timestamp           INTEGER NOT NULL
);

-- Free-form key/value configuration entries
CREATE TABLE IF NOT EXISTS configuration (
    key             TEXT PRIMARY KEY,
    value           TEXT NOT NULL,
    timestamp       INTEGER NOT NULL
);

-- Snow height measurements, one per run
CREATE TABLE IF NOT EXISTS snow_height (
    run_number      INTEGER PRIMARY KEY,
    height          REAL NOT NULL,
    timestamp       INTEGER NOT NULL
);

-- Generated GCD snapshots, keyed by their minted collection id
CREATE TABLE IF NOT EXISTS snapshots (
    collection_id   TEXT PRIMARY KEY,
    run_number      INTEGER NOT NULL,
    generated_at    INTEGER NOT NULL,
    generated_by    TEXT NOT NULL,
    payload         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_number, generated_at DESC);

-- API users for token issuance
CREATE TABLE IF NOT EXISTS users (
    username        TEXT PRIMARY KEY,
    password_hash   TEXT NOT NULL,
    email           TEXT NOT NULL DEFAULT '',
    roles           TEXT NOT NULL DEFAULT '[]',
    created_at      INTEGER NOT NULL
);
`
