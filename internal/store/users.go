package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"certtrack/internal/types"
)

// CreateUser inserts a user and returns its ID. Email is stored lowercased.
func (s *Store) CreateUser(ctx context.Context, u *types.User) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, phone, signature_key)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, string(u.Role), u.Phone, u.SignatureKey)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// CountUsers returns the total number of accounts. Zero means the next
// registration bootstraps the admin.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// UserByEmail looks up a user by email (case-insensitive).
func (s *Store) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, phone, signature_key
		FROM users WHERE email = ?`, strings.ToLower(email)))
}

// UserByID looks up a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (*types.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, phone, signature_key
		FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*types.User, error) {
	var u types.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Phone, &u.SignatureKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = types.Role(role)
	return &u, nil
}

// ListUsers returns every account ordered by ID.
func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, phone, signature_key
		FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []types.User
	for rows.Next() {
		var u types.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Phone, &u.SignatureKey); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = types.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListEngineers returns accounts with the ENGINEER role, for assignment
// dropdowns.
func (s *Store) ListEngineers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, phone, signature_key
		FROM users WHERE role = ? ORDER BY name ASC`, string(types.RoleEngineer))
	if err != nil {
		return nil, fmt.Errorf("failed to list engineers: %w", err)
	}
	defer rows.Close()

	var out []types.User
	for rows.Next() {
		var u types.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Phone, &u.SignatureKey); err != nil {
			return nil, fmt.Errorf("failed to scan engineer: %w", err)
		}
		u.Role = types.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserRole changes a user's role.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role types.Role) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", string(role), id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
