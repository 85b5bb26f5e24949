package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration adds a single column when an existing database predates it.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists columns added after the first release. Databases
// created by initialize() already have them; older files get an ALTER TABLE.
var pendingMigrations = []Migration{
	// Typed inspections and public certificate numbers
	{"inspections", "public_id", "TEXT NOT NULL DEFAULT ''"},
	{"inspections", "type", "TEXT NOT NULL DEFAULT 'SCRAP_PSIC'"},
	// Per-inspection commission override
	{"inspections", "commission_rate_override", "TEXT"},
	// Machinery valuation inputs
	{"inspections", "purchase_year", "INTEGER NOT NULL DEFAULT 0"},
	{"inspections", "original_cost", "TEXT NOT NULL DEFAULT '0'"},
	// Engineer signature key for final reports
	{"users", "signature_key", "TEXT NOT NULL DEFAULT ''"},
}

// runMigrations applies add-column migrations for existing databases.
func (s *Store) runMigrations() error {
	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(s.db, m.Table) {
			continue
		}
		exists, err := columnExists(s.db, m.Table, m.Column)
		if err != nil {
			return fmt.Errorf("failed to inspect %s.%s: %w", m.Table, m.Column, err)
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", m.Table, m.Column, err)
		}
		s.logger.Info("applied column migration",
			zap.String("table", m.Table), zap.String("column", m.Column))
		applied++
	}
	if applied > 0 {
		s.logger.Info("migrations complete", zap.Int("applied", applied))
	}
	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&name)
	return err == nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
