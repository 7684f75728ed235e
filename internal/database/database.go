package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

// DB wraps a connection pool together with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Driver string
}

// New creates a new database connection pool for the given driver ("sqlite" or "postgres").
func New(driver, dataSourceName string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "sqlite":
		db, err = sql.Open("sqlite", sqliteDSN(dataSourceName))
		if err != nil {
			return nil, err
		}
		// Every connection to ":memory:" is a separate database.
		if strings.Contains(dataSourceName, ":memory:") {
			db.SetMaxOpenConns(1)
		}
	case "postgres":
		db, err = sql.Open("pgx", dataSourceName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, Driver: driver}, nil
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Rebind rewrites '?' placeholders into the driver's native form.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Driver, query)
}

// Rebind rewrites '?' placeholders into '$n' for postgres and leaves other dialects untouched.
func Rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(ctx context.Context, db *DB) error {
	stmts := sqliteSchema
	if db.Driver == "postgres" {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'employee' CHECK (role IN ('admin', 'employee')),
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		timestamp DATETIME NOT NULL,
		event_type TEXT NOT NULL CHECK (event_type IN ('clock_in', 'lunch_out', 'lunch_in', 'clock_out')),
		justification TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_employee_ts ON attendance_events(employee_id, timestamp)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id BIGSERIAL PRIMARY KEY,
		full_name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'employee' CHECK (role IN ('admin', 'employee')),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_events (
		id BIGSERIAL PRIMARY KEY,
		employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL CHECK (event_type IN ('clock_in', 'lunch_out', 'lunch_in', 'clock_out')),
		justification TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_employee_ts ON attendance_events(employee_id, timestamp)`,
}
