package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Storage, error) {
	return New(":memory:")
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trackings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			question TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'running',
			pattern TEXT,
			one_time_at DATETIME,
			schedules TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trackings_user_id ON trackings(user_id)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tracking_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			scheduled_time DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'upcoming',
			value TEXT,
			notes TEXT NOT NULL DEFAULT '',
			skipped INTEGER NOT NULL DEFAULT 0,
			answered_at DATETIME,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (tracking_id) REFERENCES trackings(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_tracking_id ON reminders(tracking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(status, scheduled_time)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// exec runs a squirrel statement and returns the affected row count.
func (s *Storage) exec(b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
