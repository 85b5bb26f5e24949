package store

import (
	"context"
	"fmt"
	"time"

	"certtrack/internal/types"
)

// AppendAudit records a mutation in the append-only audit log.
func (s *Store) AppendAudit(ctx context.Context, e *types.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (actor_id, entity, entity_id, action, diff, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullID(e.ActorID), e.Entity, e.EntityID, e.Action, e.Diff, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries for an entity, newest first.
func (s *Store) ListAudit(ctx context.Context, entity string, entityID int64) ([]types.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, COALESCE(a.actor_id, 0), COALESCE(u.name, ''), a.entity,
		       a.entity_id, a.action, a.diff, a.created_at
		FROM audit_log a
		LEFT JOIN users u ON u.id = a.actor_id
		WHERE a.entity = ? AND a.entity_id = ?
		ORDER BY a.id DESC`, entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var out []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Entity,
			&e.EntityID, &e.Action, &e.Diff, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
