package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certtrack/internal/types"
)

// CreateClient inserts a client and returns its ID.
func (s *Store) CreateClient(ctx context.Context, c *types.Client) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, gst_number, billing_address) VALUES (?, ?, ?)`,
		c.Name, c.GSTNumber, c.BillingAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}
	return res.LastInsertId()
}

// ClientByID looks up a client by primary key.
func (s *Store) ClientByID(ctx context.Context, id int64) (*types.Client, error) {
	var c types.Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, gst_number, billing_address FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.GSTNumber, &c.BillingAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	return &c, nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]types.Client, error) {
	return s.queryClients(ctx, "SELECT id, name, gst_number, billing_address FROM clients ORDER BY name ASC")
}

// SearchClients returns clients whose name matches the query, for global
// search.
func (s *Store) SearchClients(ctx context.Context, q string) ([]types.Client, error) {
	return s.queryClients(ctx, `
		SELECT id, name, gst_number, billing_address FROM clients
		WHERE name LIKE ? ORDER BY name ASC`, "%"+q+"%")
}

func (s *Store) queryClients(ctx context.Context, query string, args ...any) ([]types.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []types.Client
	for rows.Next() {
		var c types.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.GSTNumber, &c.BillingAddress); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteClient removes a client.
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
