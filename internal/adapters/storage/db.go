package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and driver-specific setup.
type Dialect string

// Supported dialects
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrUnknownDialect is returned for an unsupported driver name.
var ErrUnknownDialect = errors.New("database driver must be 'sqlite' or 'postgres'")

// ParseDialect maps a driver name to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	}
	return "", ErrUnknownDialect
}

// Open connects to the session database.
// PRE: dsn is a file path / ":memory:" for sqlite or a libpq URL for postgres
// POST: Returns a pinged connection
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	driver := "sqlite"
	if dialect == DialectPostgres {
		driver = "postgres"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection keeps ":memory:" databases shared and avoids
		// SQLITE_BUSY on concurrent session writes.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

// Rebind rewrites "?" placeholders into "$1, $2, ..." for postgres.
// Queries in this repo never contain a literal question mark.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
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

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "console_session",
		stmts: []string{`
		CREATE TABLE IF NOT EXISTS console_session (
			id TEXT PRIMARY KEY,
			operator_id INTEGER NOT NULL,
			operator_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			home_center_id INTEGER NOT NULL DEFAULT 0,
			home_center_name TEXT NOT NULL DEFAULT '',
			selected_center_id INTEGER NOT NULL DEFAULT 0,
			last_screen TEXT NOT NULL DEFAULT '',
			sealed_token TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL
		)`},
	},
	{
		version: 2,
		name:    "console_session_expiry_index",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_console_session_expires ON console_session (expires_at)`,
		},
	},
	{
		version: 3,
		name:    "export_delivery",
		stmts: []string{`
		CREATE TABLE IF NOT EXISTS export_delivery (
			id TEXT PRIMARY KEY,
			operator_id INTEGER NOT NULL,
			member_kind TEXT NOT NULL,
			center_id INTEGER NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			recipient TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			sent_at BIGINT NOT NULL
		)`},
	},
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version (0 for a fresh database).
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies pending migrations in order.
// PRE: db is a valid connection for dialect
// POST: Schema is at LatestSchemaVersion; running it again is a no-op
func MigrateDB(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, name TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, dialect, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, dialect Dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, Rebind(dialect, `INSERT INTO schema_version (version, name) VALUES (?, ?)`), m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
