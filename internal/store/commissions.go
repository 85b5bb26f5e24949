package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"certtrack/internal/types"
)

// ErrNoCHA is returned when commission generation is requested for an
// inspection with no CHA linked.
var ErrNoCHA = errors.New("no cha linked to inspection")

// GenerateCommission derives the commission for an inspection: invoice fee
// times the effective rate (the inspection's override when set, else the
// CHA's default), rounded to 2 places. The row is upserted; regeneration
// recomputes the amount but keeps the existing payout status.
func (s *Store) GenerateCommission(ctx context.Context, inspectionID int64) (*types.Commission, error) {
	insp, err := s.InspectionByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.CHAID == 0 {
		return nil, ErrNoCHA
	}

	rate := decimal.Zero
	if insp.CommissionRateOverride != nil {
		rate = *insp.CommissionRateOverride
	} else {
		cha, err := s.CHAByID(ctx, insp.CHAID)
		if err != nil {
			return nil, err
		}
		rate = cha.CommissionRate
	}

	fee := decimal.Zero
	if inv, err := s.InvoiceByInspection(ctx, inspectionID); err == nil {
		fee = inv.Fee
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	amount := types.CommissionAmount(fee, rate)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commissions (inspection_id, cha_id, amount, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(inspection_id) DO UPDATE SET amount = excluded.amount, cha_id = excluded.cha_id`,
		inspectionID, insp.CHAID, amount.String(), string(types.CommissionDue))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert commission: %w", err)
	}

	return s.CommissionByInspection(ctx, inspectionID)
}

// CommissionByInspection returns the inspection's commission, if any.
func (s *Store) CommissionByInspection(ctx context.Context, inspectionID int64) (*types.Commission, error) {
	return s.scanCommission(s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, cha_id, amount, status
		FROM commissions WHERE inspection_id = ?`, inspectionID))
}

// CommissionByID returns a commission by primary key.
func (s *Store) CommissionByID(ctx context.Context, id int64) (*types.Commission, error) {
	return s.scanCommission(s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, cha_id, amount, status
		FROM commissions WHERE id = ?`, id))
}

func (s *Store) scanCommission(row *sql.Row) (*types.Commission, error) {
	var (
		c      types.Commission
		chaID  sql.NullInt64
		amount string
		status string
	)
	err := row.Scan(&c.ID, &c.InspectionID, &chaID, &amount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan commission: %w", err)
	}
	c.CHAID = scanID(chaID)
	c.Amount = parseDec(amount)
	c.Status = types.CommissionStatus(status)
	return &c, nil
}

// UpdateCommissionStatus sets the payout status.
func (s *Store) UpdateCommissionStatus(ctx context.Context, id int64, status types.CommissionStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE commissions SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update commission status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCommissionAmount overrides the amount manually. Negative amounts
// clamp to zero; the result is rounded to 2 places.
func (s *Store) UpdateCommissionAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE commissions SET amount = ? WHERE id = ?", amount.Round(2).String(), id)
	if err != nil {
		return fmt.Errorf("failed to update commission amount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCommissions returns every commission joined with its inspection and
// CHA for the tracker page.
func (s *Store) ListCommissions(ctx context.Context) ([]types.Commission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.inspection_id, m.cha_id, m.amount, m.status,
		       COALESCE(h.name, ''), i.public_id, i.asset
		FROM commissions m
		JOIN inspections i ON i.id = m.inspection_id
		LEFT JOIN chas h ON h.id = m.cha_id
		ORDER BY m.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	defer rows.Close()

	var out []types.Commission
	for rows.Next() {
		var (
			c      types.Commission
			chaID  sql.NullInt64
			amount string
			status string
		)
		if err := rows.Scan(&c.ID, &c.InspectionID, &chaID, &amount, &status,
			&c.CHAName, &c.InspectionPublicID, &c.InspectionAsset); err != nil {
			return nil, fmt.Errorf("failed to scan commission row: %w", err)
		}
		c.CHAID = scanID(chaID)
		c.Amount = parseDec(amount)
		c.Status = types.CommissionStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CommissionSummaryRow is a per-CHA per-status amount total.
type CommissionSummaryRow struct {
	CHAName string
	Status  types.CommissionStatus
	Total   decimal.Decimal
}

// CommissionSummary aggregates commission amounts by CHA and status.
// Amounts are summed in decimal on the way out, not in SQL, to keep the
// arithmetic exact.
func (s *Store) CommissionSummary(ctx context.Context) ([]CommissionSummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(h.name, ''), m.status, m.amount
		FROM commissions m
		LEFT JOIN chas h ON h.id = m.cha_id
		ORDER BY h.name, m.status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission summary: %w", err)
	}
	defer rows.Close()

	var out []CommissionSummaryRow
	for rows.Next() {
		var name, status, amount string
		if err := rows.Scan(&name, &status, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		st := types.CommissionStatus(status)
		if n := len(out); n > 0 && out[n-1].CHAName == name && out[n-1].Status == st {
			out[n-1].Total = out[n-1].Total.Add(parseDec(amount))
			continue
		}
		out = append(out, CommissionSummaryRow{CHAName: name, Status: st, Total: parseDec(amount)})
	}
	return out, rows.Err()
}

// DueCommissions returns commissions still marked DUE, for notifications.
func (s *Store) DueCommissions(ctx context.Context) ([]types.Commission, error) {
	all, err := s.ListCommissions(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.Commission
	for _, c := range all {
		if c.Status == types.CommissionDue {
			out = append(out, c)
		}
	}
	return out, nil
}

// CommissionSnapshot flattens a commission into the audit diff form.
func CommissionSnapshot(c *types.Commission) map[string]string {
	return map[string]string{
		"amount": c.Amount.String(),
		"status": string(c.Status),
	}
}
