package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certtrack/internal/types"
)

// AddAttachment records an uploaded file against an inspection.
func (s *Store) AddAttachment(ctx context.Context, a *types.Attachment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (inspection_id, file_name, stored_name, size, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.InspectionID, a.FileName, a.StoredName, a.Size, nullID(a.UploadedBy), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to add attachment: %w", err)
	}
	return res.LastInsertId()
}

// AttachmentByID returns an attachment by primary key.
func (s *Store) AttachmentByID(ctx context.Context, id int64) (*types.Attachment, error) {
	var a types.Attachment
	var uploadedBy sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, file_name, stored_name, size, uploaded_by, created_at
		FROM attachments WHERE id = ?`, id,
	).Scan(&a.ID, &a.InspectionID, &a.FileName, &a.StoredName, &a.Size, &uploadedBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attachment: %w", err)
	}
	a.UploadedBy = scanID(uploadedBy)
	return &a, nil
}

// ListAttachments returns an inspection's attachments, oldest first.
func (s *Store) ListAttachments(ctx context.Context, inspectionID int64) ([]types.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, inspection_id, file_name, stored_name, size, uploaded_by, created_at
		FROM attachments WHERE inspection_id = ? ORDER BY id ASC`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var out []types.Attachment
	for rows.Next() {
		var a types.Attachment
		var uploadedBy sql.NullInt64
		if err := rows.Scan(&a.ID, &a.InspectionID, &a.FileName, &a.StoredName,
			&a.Size, &uploadedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.UploadedBy = scanID(uploadedBy)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAttachment removes the database row. Disk cleanup is the caller's
// responsibility; the row is authoritative.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
