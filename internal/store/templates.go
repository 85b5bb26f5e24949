package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certtrack/internal/types"
)

// CreateTemplate inserts a report template and returns its ID.
func (s *Store) CreateTemplate(ctx context.Context, t *types.ReportTemplate) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO report_templates (name, active, ai_prompt, html_snippet)
		VALUES (?, ?, ?, ?)`,
		t.Name, boolToInt(t.Active), t.AIPrompt, t.HTMLSnippet)
	if err != nil {
		return 0, fmt.Errorf("failed to create template: %w", err)
	}
	return res.LastInsertId()
}

// ListTemplates returns all templates, active first, then by name.
func (s *Store) ListTemplates(ctx context.Context) ([]types.ReportTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, active, ai_prompt, html_snippet
		FROM report_templates ORDER BY active DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []types.ReportTemplate
	for rows.Next() {
		var t types.ReportTemplate
		var active int
		if err := rows.Scan(&t.ID, &t.Name, &active, &t.AIPrompt, &t.HTMLSnippet); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		t.Active = active != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// ActiveTemplate returns the first active template, or ErrNotFound.
func (s *Store) ActiveTemplate(ctx context.Context) (*types.ReportTemplate, error) {
	var t types.ReportTemplate
	var active int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, active, ai_prompt, html_snippet
		FROM report_templates WHERE active = 1 ORDER BY id ASC LIMIT 1`,
	).Scan(&t.ID, &t.Name, &active, &t.AIPrompt, &t.HTMLSnippet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	t.Active = active != 0
	return &t, nil
}

// ToggleTemplate flips a template's active flag.
func (s *Store) ToggleTemplate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE report_templates SET active = 1 - active WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to toggle template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
