package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certtrack/internal/types"
)

// EnsureReport returns the inspection's report, creating an empty draft on
// first access.
func (s *Store) EnsureReport(ctx context.Context, inspectionID int64) (*types.Report, error) {
	rep, err := s.ReportByInspection(ctx, inspectionID)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (inspection_id, status, body, updated_at)
		VALUES (?, ?, '', ?)`,
		inspectionID, string(types.ReportDraft), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &types.Report{
		ID:           id,
		InspectionID: inspectionID,
		Status:       types.ReportDraft,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// ReportByInspection returns the inspection's report, if any.
func (s *Store) ReportByInspection(ctx context.Context, inspectionID int64) (*types.Report, error) {
	var r types.Report
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, status, body, updated_at
		FROM reports WHERE inspection_id = ?`, inspectionID,
	).Scan(&r.ID, &r.InspectionID, &status, &r.Body, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	r.Status = types.ReportStatus(status)
	return &r, nil
}

// SaveReport writes a report's body and status, bumping updated_at.
func (s *Store) SaveReport(ctx context.Context, r *types.Report) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = ?, body = ?, updated_at = ? WHERE id = ?`,
		string(r.Status), r.Body, time.Now().UTC(), r.ID)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// OverdueReports returns inspections still in COMPLETED status dated before
// the cutoff, for the notifications page. Finalizing a report moves the
// inspection to REPORT_GENERATED, which drops it from this list.
func (s *Store) OverdueReports(ctx context.Context, olderThan time.Duration) ([]types.Inspection, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.db.QueryContext(ctx,
		inspectionColumns+" WHERE i.status = ? AND i.date < ? ORDER BY i.date ASC",
		string(types.InspectionCompleted), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue reports: %w", err)
	}
	defer rows.Close()

	var out []types.Inspection
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}
