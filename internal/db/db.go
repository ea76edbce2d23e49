package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Init initializes the database connection and schema
func Init(path string) error {
	var err error

	if err = ensureDirectory(path); err != nil {
		return err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	DB, err = sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	enableWAL()
	return CreateSchema(DB)
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

func enableWAL() {
	if _, err := DB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("⚠️  Could not enable WAL mode: %v", err)
	}
}

// CreateSchema creates all tables. Alerts reference sensors by sensor_id
// string only (soft foreign key) so ingestion can auto-provision sensors.
func CreateSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		full_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	CREATE TABLE IF NOT EXISTS sensors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id TEXT UNIQUE NOT NULL,
		sensor_name TEXT NOT NULL,
		latitude REAL DEFAULT 0.0,
		longitude REAL DEFAULT 0.0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sensor_id TEXT NOT NULL,
		sensor_name TEXT NOT NULL,
		alert_time DATETIME NOT NULL,
		resolved INTEGER DEFAULT 0,
		resolved_by INTEGER,
		resolved_at DATETIME,
		threat_type TEXT,
		resolution_details TEXT,
		attachment_path TEXT,
		FOREIGN KEY (resolved_by) REFERENCES users(id)
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_sensor ON alerts(sensor_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_resolved ON alerts(resolved);
	CREATE INDEX IF NOT EXISTS idx_alerts_time ON alerts(alert_time);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
