package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"certtrack/internal/types"
)

// nextPublicID issues the next sequential certificate number for the given
// inspection type and year, e.g. "PSIC/2026/0007". The counter row is
// upserted inside the caller's transaction so the number is only consumed if
// the inspection insert commits.
func nextPublicID(ctx context.Context, tx *sql.Tx, t types.InspectionType, date time.Time) (string, error) {
	prefix := t.Prefix()
	year := date.Year()

	_, err := tx.ExecContext(ctx, `
		INSERT INTO sequences (prefix, year, last) VALUES (?, ?, 1)
		ON CONFLICT(prefix, year) DO UPDATE SET last = last + 1`,
		prefix, year)
	if err != nil {
		return "", fmt.Errorf("failed to advance sequence %s/%d: %w", prefix, year, err)
	}

	var n int64
	if err := tx.QueryRowContext(ctx,
		"SELECT last FROM sequences WHERE prefix = ? AND year = ?", prefix, year,
	).Scan(&n); err != nil {
		return "", fmt.Errorf("failed to read sequence %s/%d: %w", prefix, year, err)
	}

	return fmt.Sprintf("%s/%d/%04d", prefix, year, n), nil
}
