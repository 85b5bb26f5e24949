package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"certtrack/internal/audit"
	"certtrack/internal/types"
)

// inspectionColumns is the join used by every inspection read so display
// names come back in one query.
const inspectionColumns = `
	SELECT i.id, i.public_id, i.type, i.date, i.client_id, i.location, i.asset,
	       i.status, i.engineer_id, i.cha_id, i.commission_rate_override,
	       i.purchase_year, i.original_cost, i.created_at,
	       COALESCE(c.name, ''), COALESCE(e.name, ''), COALESCE(h.name, '')
	FROM inspections i
	LEFT JOIN clients c ON c.id = i.client_id
	LEFT JOIN users e ON e.id = i.engineer_id
	LEFT JOIN chas h ON h.id = i.cha_id`

// CreateInspection inserts an inspection, issuing its public certificate
// number from the per-type per-year sequence in the same transaction.
func (s *Store) CreateInspection(ctx context.Context, i *types.Inspection) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	publicID, err := nextPublicID(ctx, tx, i.Type, i.Date)
	if err != nil {
		return 0, err
	}

	var override any
	if i.CommissionRateOverride != nil {
		override = clampRate(*i.CommissionRateOverride).String()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO inspections
			(public_id, type, date, client_id, location, asset, status,
			 engineer_id, cha_id, commission_rate_override, purchase_year,
			 original_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		publicID, string(i.Type), i.Date, nullID(i.ClientID), i.Location, i.Asset,
		string(i.Status), nullID(i.EngineerID), nullID(i.CHAID), override,
		i.PurchaseYear, i.OriginalCost.String(), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create inspection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit inspection: %w", err)
	}

	i.ID = id
	i.PublicID = publicID
	return id, nil
}

// InspectionByID returns an inspection with joined display names.
func (s *Store) InspectionByID(ctx context.Context, id int64) (*types.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, inspectionColumns+" WHERE i.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspection: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanInspection(rows)
}

// Filter narrows the dashboard inspection listing. Zero values are ignored.
type Filter struct {
	From       time.Time
	To         time.Time
	Status     types.InspectionStatus
	Type       types.InspectionType
	CHAID      int64
	EngineerID int64
	Query      string
}

// ListInspections returns inspections matching the filter, newest first.
func (s *Store) ListInspections(ctx context.Context, f Filter) ([]types.Inspection, error) {
	var conds []string
	var args []any

	if !f.From.IsZero() {
		conds = append(conds, "i.date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "i.date <= ?")
		args = append(args, f.To)
	}
	if f.Status != "" {
		conds = append(conds, "i.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		conds = append(conds, "i.type = ?")
		args = append(args, string(f.Type))
	}
	if f.CHAID != 0 {
		conds = append(conds, "i.cha_id = ?")
		args = append(args, f.CHAID)
	}
	if f.EngineerID != 0 {
		conds = append(conds, "i.engineer_id = ?")
		args = append(args, f.EngineerID)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		conds = append(conds, "(c.name LIKE ? OR i.location LIKE ? OR i.asset LIKE ? OR i.public_id LIKE ?)")
		args = append(args, like, like, like, like)
	}

	query := inspectionColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY i.date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
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

// UpdateInspection rewrites the mutable fields of an inspection. The public
// ID, type and creation time never change after creation.
func (s *Store) UpdateInspection(ctx context.Context, i *types.Inspection) error {
	var override any
	if i.CommissionRateOverride != nil {
		override = clampRate(*i.CommissionRateOverride).String()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE inspections SET
			date = ?, client_id = ?, location = ?, asset = ?, status = ?,
			engineer_id = ?, cha_id = ?, commission_rate_override = ?,
			purchase_year = ?, original_cost = ?
		WHERE id = ?`,
		i.Date, nullID(i.ClientID), i.Location, i.Asset, string(i.Status),
		nullID(i.EngineerID), nullID(i.CHAID), override,
		i.PurchaseYear, i.OriginalCost.String(), i.ID)
	if err != nil {
		return fmt.Errorf("failed to update inspection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateInspectionStatus sets just the workflow status.
func (s *Store) UpdateInspectionStatus(ctx context.Context, id int64, status types.InspectionStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inspections SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignEngineer sets or clears (engineerID 0) the assigned engineer.
func (s *Store) AssignEngineer(ctx context.Context, id, engineerID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inspections SET engineer_id = ? WHERE id = ?", nullID(engineerID), id)
	if err != nil {
		return fmt.Errorf("failed to assign engineer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInspection removes an inspection and its dependent report, invoice,
// commission, attachment and audit rows in one transaction.
func (s *Store) DeleteInspection(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM reports WHERE inspection_id = ?",
		"DELETE FROM invoices WHERE inspection_id = ?",
		"DELETE FROM commissions WHERE inspection_id = ?",
		"DELETE FROM attachments WHERE inspection_id = ?",
		"DELETE FROM audit_log WHERE entity = 'inspection' AND entity_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM inspections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete inspection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func scanInspection(rows *sql.Rows) (*types.Inspection, error) {
	var (
		i                 types.Inspection
		typ, status       string
		clientID          sql.NullInt64
		engineerID, chaID sql.NullInt64
		override          sql.NullString
		originalCost      string
	)
	err := rows.Scan(&i.ID, &i.PublicID, &typ, &i.Date, &clientID, &i.Location,
		&i.Asset, &status, &engineerID, &chaID, &override, &i.PurchaseYear,
		&originalCost, &i.CreatedAt, &i.ClientName, &i.EngineerName, &i.CHAName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inspection: %w", err)
	}
	i.Type = types.InspectionType(typ)
	i.Status = types.InspectionStatus(status)
	i.ClientID = scanID(clientID)
	i.EngineerID = scanID(engineerID)
	i.CHAID = scanID(chaID)
	if override.Valid {
		d := parseDec(override.String)
		i.CommissionRateOverride = &d
	}
	i.OriginalCost = parseDec(originalCost)
	return &i, nil
}

// InspectionSnapshot flattens an inspection into the audit diff form.
func InspectionSnapshot(i *types.Inspection) audit.Snapshot {
	snap := audit.Snapshot{
		"date":     i.Date.Format("2006-01-02"),
		"client":   i.ClientName,
		"location": i.Location,
		"asset":    i.Asset,
		"status":   string(i.Status),
		"engineer": i.EngineerName,
		"cha":      i.CHAName,
	}
	if i.CommissionRateOverride != nil {
		snap["commission_rate_override"] = i.CommissionRateOverride.String()
	}
	if i.Type == types.TypeMachineryValuation {
		snap["purchase_year"] = fmt.Sprintf("%d", i.PurchaseYear)
		snap["original_cost"] = i.OriginalCost.String()
	}
	return snap
}
