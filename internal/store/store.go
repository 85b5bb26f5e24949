// Package store persists all certtrack entities in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a single SQLite database holding the full workflow state:
// users, clients, CHAs, inspections and their dependent report, invoice,
// commission, attachment and audit rows.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open initializes the SQLite database at path, creating the schema and
// applying column migrations. Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("store opened", zap.String("path", path))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'ENGINEER',
		phone TEXT NOT NULL DEFAULT '',
		signature_key TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		gst_number TEXT NOT NULL DEFAULT '',
		billing_address TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS chas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		contact TEXT NOT NULL DEFAULT '',
		commission_rate TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS inspections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'SCRAP_PSIC',
		date DATETIME NOT NULL,
		client_id INTEGER REFERENCES clients(id),
		location TEXT NOT NULL DEFAULT '',
		asset TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'PENDING',
		engineer_id INTEGER REFERENCES users(id),
		cha_id INTEGER REFERENCES chas(id),
		commission_rate_override TEXT,
		purchase_year INTEGER NOT NULL DEFAULT 0,
		original_cost TEXT NOT NULL DEFAULT '0',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_inspections_status ON inspections(status);
	CREATE INDEX IF NOT EXISTS idx_inspections_date ON inspections(date);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inspection_id INTEGER NOT NULL UNIQUE REFERENCES inspections(id),
		status TEXT NOT NULL DEFAULT 'DRAFT',
		body TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inspection_id INTEGER NOT NULL UNIQUE REFERENCES inspections(id),
		fee TEXT NOT NULL DEFAULT '0',
		tax_pct TEXT NOT NULL DEFAULT '18',
		total TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'DRAFT',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS commissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inspection_id INTEGER NOT NULL UNIQUE REFERENCES inspections(id),
		cha_id INTEGER REFERENCES chas(id),
		amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'DUE'
	);

	CREATE TABLE IF NOT EXISTS report_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		ai_prompt TEXT NOT NULL DEFAULT '',
		html_snippet TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inspection_id INTEGER NOT NULL REFERENCES inspections(id),
		file_name TEXT NOT NULL,
		stored_name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		uploaded_by INTEGER REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_inspection ON attachments(inspection_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor_id INTEGER REFERENCES users(id),
		entity TEXT NOT NULL,
		entity_id INTEGER NOT NULL,
		action TEXT NOT NULL,
		diff TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity, entity_id);

	CREATE TABLE IF NOT EXISTS sequences (
		prefix TEXT NOT NULL,
		year INTEGER NOT NULL,
		last INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (prefix, year)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// nullID maps the zero ID to SQL NULL so unassigned foreign keys stay NULL.
func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// scanID maps a nullable FK column back to the zero-means-unset convention.
func scanID(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// parseDec converts a TEXT money column back to a decimal; blank or invalid
// values become zero.
func parseDec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
