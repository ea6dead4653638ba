package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/nitroctl/history.db"

// DB wraps the SQLite history database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	// Create schema version table
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Get current version
	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	// Run migrations
	migrations := []string{
		migrationV1,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates the initial schema
const migrationV1 = `
-- Fan status snapshots recorded by the monitor
CREATE TABLE IF NOT EXISTS fan_snapshots (
    id INTEGER PRIMARY KEY,
    mode TEXT NOT NULL,
    cpu_percent INTEGER,
    gpu_percent INTEGER,
    cpu_rpm INTEGER,
    gpu_rpm INTEGER,
    cpu_rpm_estimated INTEGER DEFAULT 0,
    gpu_rpm_estimated INTEGER DEFAULT 0,
    cooler_boost INTEGER,
    cpu_temp REAL,
    gpu_temp REAL,
    cpu_usage REAL,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_snapshots_time ON fan_snapshots(timestamp);
CREATE INDEX IF NOT EXISTS idx_snapshots_mode ON fan_snapshots(mode);

-- Control operations issued through the CLI
CREATE TABLE IF NOT EXISTS control_events (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    cpu_value INTEGER,
    gpu_value INTEGER,
    succeeded INTEGER NOT NULL,
    verified INTEGER DEFAULT 0,
    details TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_time ON control_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON control_events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_session ON control_events(session_id);
`

// Snapshot is one recorded fan status row, optionally joined with
// the telemetry readings taken alongside it
type Snapshot struct {
	ID              int64
	Mode            string
	CPUPercent      *int
	GPUPercent      *int
	CPURPM          *int
	GPURPM          *int
	CPURPMEstimated bool
	GPURPMEstimated bool
	CoolerBoost     *bool
	CPUTemp         *float64
	GPUTemp         *float64
	CPUUsage        *float64
	Timestamp       time.Time
}

// ControlEvent is one recorded control operation
type ControlEvent struct {
	ID        int64
	SessionID string
	EventType string
	CPUValue  *int
	GPUValue  *int
	Succeeded bool
	Verified  bool
	Details   string
	Timestamp time.Time
}

// Event types
const (
	EventBoostOn   = "boost_on"
	EventBoostOff  = "boost_off"
	EventBoostMix  = "boost_individual"
	EventCustomFan = "custom_fan"
	EventAutoMode  = "auto_mode"
)
