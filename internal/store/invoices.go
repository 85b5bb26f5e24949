package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"certtrack/internal/types"
)

var defaultTaxPct = decimal.NewFromInt(18)

// EnsureInvoice returns the inspection's invoice, creating a zero-fee draft
// at the default tax rate on first access.
func (s *Store) EnsureInvoice(ctx context.Context, inspectionID int64) (*types.Invoice, error) {
	inv, err := s.InvoiceByInspection(ctx, inspectionID)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	inv = &types.Invoice{
		InspectionID: inspectionID,
		Fee:          decimal.Zero,
		TaxPct:       defaultTaxPct,
		Total:        decimal.Zero,
		Status:       types.InvoiceDraft,
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (inspection_id, fee, tax_pct, total, status, notes)
		VALUES (?, ?, ?, ?, ?, '')`,
		inspectionID, inv.Fee.String(), inv.TaxPct.String(), inv.Total.String(),
		string(inv.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	inv.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// InvoiceByInspection returns the inspection's invoice, if any.
func (s *Store) InvoiceByInspection(ctx context.Context, inspectionID int64) (*types.Invoice, error) {
	var (
		inv                types.Invoice
		fee, taxPct, total string
		status             string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, inspection_id, fee, tax_pct, total, status, notes
		FROM invoices WHERE inspection_id = ?`, inspectionID,
	).Scan(&inv.ID, &inv.InspectionID, &fee, &taxPct, &total, &status, &inv.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	inv.Fee = parseDec(fee)
	inv.TaxPct = parseDec(taxPct)
	inv.Total = parseDec(total)
	inv.Status = types.InvoiceStatus(status)
	return &inv, nil
}

// SaveInvoice writes fee, tax, status and notes, recomputing the total.
func (s *Store) SaveInvoice(ctx context.Context, inv *types.Invoice) error {
	inv.Total = types.InvoiceTotal(inv.Fee, inv.TaxPct)
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices SET fee = ?, tax_pct = ?, total = ?, status = ?, notes = ?
		WHERE id = ?`,
		inv.Fee.String(), inv.TaxPct.String(), inv.Total.String(),
		string(inv.Status), inv.Notes, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InvoiceRow pairs an invoice with its inspection for search results.
type InvoiceRow struct {
	Invoice    types.Invoice
	PublicID   string
	ClientName string
}

// SearchInvoices returns invoices whose client name matches the query.
func (s *Store) SearchInvoices(ctx context.Context, q string) ([]InvoiceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.inspection_id, v.fee, v.tax_pct, v.total, v.status, v.notes,
		       i.public_id, COALESCE(c.name, '')
		FROM invoices v
		JOIN inspections i ON i.id = v.inspection_id
		LEFT JOIN clients c ON c.id = i.client_id
		WHERE c.name LIKE ?
		ORDER BY v.id DESC`, "%"+q+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search invoices: %w", err)
	}
	defer rows.Close()

	var out []InvoiceRow
	for rows.Next() {
		var (
			r                  InvoiceRow
			fee, taxPct, total string
			status             string
		)
		if err := rows.Scan(&r.Invoice.ID, &r.Invoice.InspectionID, &fee, &taxPct,
			&total, &status, &r.Invoice.Notes, &r.PublicID, &r.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		r.Invoice.Fee = parseDec(fee)
		r.Invoice.TaxPct = parseDec(taxPct)
		r.Invoice.Total = parseDec(total)
		r.Invoice.Status = types.InvoiceStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// MissingInvoices returns COMPLETED or REPORT_GENERATED inspections that
// have no invoice row yet, for the notifications page.
func (s *Store) MissingInvoices(ctx context.Context) ([]types.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, inspectionColumns+`
		WHERE i.status IN (?, ?)
		  AND i.id NOT IN (SELECT inspection_id FROM invoices)
		ORDER BY i.date ASC`,
		string(types.InspectionCompleted), string(types.InspectionReportGenerated))
	if err != nil {
		return nil, fmt.Errorf("failed to query missing invoices: %w", err)
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

// InvoiceSnapshot flattens an invoice into the audit diff form.
func InvoiceSnapshot(inv *types.Invoice) map[string]string {
	return map[string]string{
		"fee":     inv.Fee.String(),
		"tax_pct": inv.TaxPct.String(),
		"total":   inv.Total.String(),
		"status":  string(inv.Status),
		"notes":   inv.Notes,
	}
}
