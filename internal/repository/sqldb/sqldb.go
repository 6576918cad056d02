// Package sqldb implements the repository interfaces on top of database/sql.
//
// Two dialects are supported:
//   - "sqlite" (modernc.org/sqlite, pure Go, no CGo) is the default. Use the
//     DSN ":memory:" for throwaway databases in tests.
//   - "mysql" (github.com/go-sql-driver/mysql) is for shared deployments.
//
// Both dialects use "?" placeholders, so every query in this package is
// written once. Timestamps are stored as UTC Unix milliseconds in BIGINT
// columns: range filters and ORDER BY then compare integers on both engines
// instead of relying on each driver's DATETIME text format.
package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn    *sql.DB
	dialect string
}

// Open connects to the database, applies connection settings for the dialect
// and runs migrations.
//
// sql.Open does not actually connect, so we Ping straight away: a bad path or
// unreachable server should fail at startup, not on the first request.
func Open(dialect, dsn string) (*DB, error) {
	if dialect == "" {
		dialect = DialectSQLite
	}
	if dialect != DialectSQLite && dialect != DialectMySQL {
		return nil, fmt.Errorf("sqldb: unsupported dialect %q", dialect)
	}

	conn, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: opening %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// One connection: SQLite serializes writers anyway, and every new
		// connection to ":memory:" would otherwise see an empty database.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: pinging %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// WAL lets readers proceed while a write is in progress.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqldb: setting WAL mode: %w", err)
		}
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect reports which engine the DB talks to.
func (db *DB) Dialect() string {
	return db.dialect
}

// migrate creates the schema if it does not exist yet. Statements are run one
// at a time because the MySQL driver rejects multi-statement Exec calls
// unless multiStatements=true is set in the DSN.
func (db *DB) migrate() error {
	stmts := sqliteSchema
	if db.dialect == DialectMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL COLLATE NOCASE,
		password_hash TEXT NOT NULL DEFAULT '',
		github_id     INTEGER NOT NULL DEFAULT 0,
		created_at    INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
	`CREATE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id)`,
	`CREATE TABLE IF NOT EXISTS carbon_entries (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		category    TEXT NOT NULL,
		amount      REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date_ms     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_carbon_entries_user_date ON carbon_entries(user_id, date_ms)`,
	`CREATE TABLE IF NOT EXISTS goals (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		target_amount REAL NOT NULL,
		period        TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goals_user_created ON goals(user_id, created_at)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes live inside the table
// definitions. The default collation already compares usernames
// case-insensitively.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(20) PRIMARY KEY,
		username      VARCHAR(64) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		github_id     BIGINT NOT NULL DEFAULT 0,
		created_at    BIGINT NOT NULL,
		UNIQUE KEY idx_users_username (username),
		KEY idx_users_github_id (github_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS carbon_entries (
		id          VARCHAR(20) PRIMARY KEY,
		user_id     VARCHAR(20) NOT NULL,
		category    VARCHAR(32) NOT NULL,
		amount      DOUBLE NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		date_ms     BIGINT NOT NULL,
		KEY idx_carbon_entries_user_date (user_id, date_ms)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS goals (
		id            VARCHAR(20) PRIMARY KEY,
		user_id       VARCHAR(20) NOT NULL,
		target_amount DOUBLE NOT NULL,
		period        VARCHAR(16) NOT NULL,
		created_at    BIGINT NOT NULL,
		KEY idx_goals_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ceilMillis rounds up so that an inclusive lower bound never admits a row
// that is earlier than t.
func ceilMillis(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.After(time.UnixMilli(ms)) {
		ms++
	}
	return ms
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
