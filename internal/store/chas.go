package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"certtrack/internal/types"
)

var hundredPct = decimal.NewFromInt(100)

// clampRate bounds a commission percentage to 0..100.
func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(hundredPct) {
		return hundredPct
	}
	return rate
}

// CreateCHA inserts a customs house agent and returns its ID. The commission
// rate is clamped to 0..100.
func (s *Store) CreateCHA(ctx context.Context, c *types.CHA) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chas (name, contact, commission_rate) VALUES (?, ?, ?)`,
		c.Name, c.Contact, clampRate(c.CommissionRate).String())
	if err != nil {
		return 0, fmt.Errorf("failed to create cha: %w", err)
	}
	return res.LastInsertId()
}

// CHAByID looks up a CHA by primary key.
func (s *Store) CHAByID(ctx context.Context, id int64) (*types.CHA, error) {
	var c types.CHA
	var rate string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact, commission_rate FROM chas WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Contact, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cha: %w", err)
	}
	c.CommissionRate = parseDec(rate)
	return &c, nil
}

// ListCHAs returns all CHAs ordered by name.
func (s *Store) ListCHAs(ctx context.Context) ([]types.CHA, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, contact, commission_rate FROM chas ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list chas: %w", err)
	}
	defer rows.Close()

	var out []types.CHA
	for rows.Next() {
		var c types.CHA
		var rate string
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan cha: %w", err)
		}
		c.CommissionRate = parseDec(rate)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCHA rewrites a CHA's fields. The rate is clamped to 0..100.
func (s *Store) UpdateCHA(ctx context.Context, c *types.CHA) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chas SET name = ?, contact = ?, commission_rate = ? WHERE id = ?`,
		c.Name, c.Contact, clampRate(c.CommissionRate).String(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update cha: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCHA removes a CHA.
func (s *Store) DeleteCHA(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cha: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
