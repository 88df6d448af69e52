package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	blobsTable         = "blobs"
	sessionEventsTable = "session_events"
)

// Store holds the ent SQL driver and provides access to repositories.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, drv: drv}, nil
}

// Driver returns the underlying ent SQL driver.
func (s *Store) Driver() *entsql.Driver {
	return s.drv
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// BlobRepo returns a BlobRepo backed by this store.
func (s *Store) BlobRepo() BlobRepo {
	return &blobRepo{drv: s.drv}
}

// SessionEventRepo returns a SessionEventRepo backed by this store.
func (s *Store) SessionEventRepo() SessionEventRepo {
	return &sessionEventRepo{drv: s.drv}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// migrate creates the tables this package owns if they do not exist.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	b := entsql.Dialect(dialect.SQLite)
	stmts := []entsql.Querier{
		b.CreateTable(blobsTable).IfNotExists().
			Columns(
				entsql.Column("key").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("data").Type("BLOB").Attr("NOT NULL"),
				entsql.Column("updated_at").Type("TEXT").Attr("NOT NULL"),
			).
			PrimaryKey("key"),
		b.CreateTable(sessionEventsTable).IfNotExists().
			Columns(
				entsql.Column("id").Type("INTEGER").Attr("PRIMARY KEY AUTOINCREMENT"),
				entsql.Column("session_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("action").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("mode").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("ranges").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("question_count").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("score").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("graded_total").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("timestamp").Type("TEXT").Attr("NOT NULL"),
			),
		b.CreateIndex("session_events_session_id").IfNotExists().
			Table(sessionEventsTable).
			Columns("session_id"),
	}

	for _, stmt := range stmts {
		query, args := stmt.Query()
		if err := drv.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("exec %q: %w", query, err)
		}
	}
	return nil
}

// DataDir resolves the application data directory:
// 1. $XDG_DATA_HOME/quiznote
// 2. ~/.local/share/quiznote
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "quiznote"), nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZNOTE_DB environment variable
// 2. $XDG_DATA_HOME/quiznote/quiznote.db
// 3. ~/.local/share/quiznote/quiznote.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZNOTE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "quiznote.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
