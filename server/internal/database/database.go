package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// User represents a registered leaderboard account. Running totals mirror
// the sum of the user's daily_usage rows.
type User struct {
	ID                int64
	Username          string
	DeviceID          string
	CreatedAt         string
	LastUploadAt      string // RFC3339, empty when the user never uploaded
	LastSyncDate      string // YYYY-MM-DD, empty when the user never uploaded
	TotalRequests     int64
	TotalInputTokens  int64
	TotalOutputTokens int64
	TotalCost         float64
}

// Open opens a SQLite database connection
func Open(dbPath string) (*DB, error) {
	// Immediate transactions take the write lock up front so the per-day
	// read-modify-write in the reconciler cannot lose updates.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors under concurrent load
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// Migrate creates the database schema
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		device_id TEXT UNIQUE NOT NULL,
		created_at TEXT NOT NULL,
		last_upload_at TEXT,
		last_sync_date TEXT,
		total_requests INTEGER NOT NULL DEFAULT 0,
		total_input_tokens INTEGER NOT NULL DEFAULT 0,
		total_output_tokens INTEGER NOT NULL DEFAULT 0,
		total_cost REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_users_device_id ON users(device_id);
	CREATE INDEX IF NOT EXISTS idx_users_total_requests ON users(total_requests);
	CREATE INDEX IF NOT EXISTS idx_users_total_cost ON users(total_cost);

	CREATE TABLE IF NOT EXISTS daily_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		total_requests INTEGER NOT NULL,
		total_input_tokens INTEGER NOT NULL,
		total_output_tokens INTEGER NOT NULL,
		total_cost REAL NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE(user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_daily_usage_user_id ON daily_usage(user_id);
	CREATE INDEX IF NOT EXISTS idx_daily_usage_date ON daily_usage(date);
	`

	_, err := db.Exec(schema)
	return err
}

// CreateUser creates a new user with zeroed running totals
func (db *DB) CreateUser(username, deviceID string) (*User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := db.Exec(
		`INSERT INTO users (username, device_id, created_at) VALUES (?, ?, ?)`,
		username, deviceID, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Username: username, DeviceID: deviceID, CreatedAt: now}, nil
}

func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var lastUploadAt, lastSyncDate sql.NullString
	err := row.Scan(
		&user.ID, &user.Username, &user.DeviceID, &user.CreatedAt,
		&lastUploadAt, &lastSyncDate,
		&user.TotalRequests, &user.TotalInputTokens, &user.TotalOutputTokens, &user.TotalCost,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.LastUploadAt = lastUploadAt.String
	user.LastSyncDate = lastSyncDate.String
	return user, nil
}

const userColumns = `id, username, device_id, created_at, last_upload_at, last_sync_date,
	total_requests, total_input_tokens, total_output_tokens, total_cost`

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(username string) (*User, error) {
	return scanUser(db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
}

// GetUserByDeviceID retrieves a user by device identifier
func (db *DB) GetUserByDeviceID(deviceID string) (*User, error) {
	return scanUser(db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE device_id = ?`, deviceID,
	))
}

// CountUploadedDays returns how many distinct days a user has uploaded
func (db *DB) CountUploadedDays(userID int64) (int64, error) {
	var count int64
	err := db.QueryRow(
		`SELECT COUNT(*) FROM daily_usage WHERE user_id = ?`, userID,
	).Scan(&count)
	return count, err
}
