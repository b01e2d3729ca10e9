package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates the SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaMotorState = `
CREATE TABLE IF NOT EXISTS motor_state (
    device_id TEXT PRIMARY KEY,
    motor_running BOOLEAN NOT NULL,
    control_mode TEXT NOT NULL,
    target_mode_active BOOLEAN NOT NULL,
    current_target_level REAL,
    target_description TEXT NOT NULL DEFAULT '',
    protection_active BOOLEAN NOT NULL,
    current_amps REAL NOT NULL,
    power_watts REAL NOT NULL,
    runtime_minutes INTEGER NOT NULL,
    total_runtime_hours REAL NOT NULL,
    mcu_online BOOLEAN NOT NULL,
    last_heartbeat TIMESTAMP,
    last_command_source TEXT NOT NULL DEFAULT '',
    last_command_reason TEXT NOT NULL DEFAULT '',
    pending_motor_running BOOLEAN,
    pending_control_mode TEXT,
    pending_target_active BOOLEAN,
    pending_target_level REAL,
    pending_protection_active BOOLEAN,
    pending_command_id TEXT NOT NULL DEFAULT '',
    pending_command_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaDeviceEvents = `
CREATE TABLE IF NOT EXISTS device_events (
    id TEXT PRIMARY KEY,
    device_id TEXT NOT NULL,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const schemaDeviceEventsIdx = `
CREATE INDEX IF NOT EXISTS idx_device_events_device_time
    ON device_events (device_id, occurred_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaMotorState,
		schemaDeviceEvents,
		schemaDeviceEventsIdx,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
