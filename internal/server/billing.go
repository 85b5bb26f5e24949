package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"certtrack/internal/audit"
	"certtrack/internal/store"
	"certtrack/internal/types"
)

// handleInvoice edits the inspection's invoice. Moving the invoice to SENT
// or PAID marks the inspection INVOICED.
func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	inv, err := s.store.EnsureInvoice(ctx, id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	if r.Method == http.MethodPost {
		before := store.InvoiceSnapshot(inv)

		if fee, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("fee"))); err == nil && !fee.IsNegative() {
			inv.Fee = fee
		}
		if tax, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("tax_pct"))); err == nil && !tax.IsNegative() {
			inv.TaxPct = tax
		}
		if st := types.InvoiceStatus(r.FormValue("status")); st == types.InvoiceDraft || st == types.InvoiceSent || st == types.InvoicePaid {
			inv.Status = st
		}
		inv.Notes = r.FormValue("notes")

		if err := s.store.SaveInvoice(ctx, inv); err != nil {
			s.serverError(w, err)
			return
		}
		if inv.Status == types.InvoiceSent || inv.Status == types.InvoicePaid {
			if err := s.store.UpdateInspectionStatus(ctx, id, types.InspectionInvoiced); err != nil {
				s.serverError(w, err)
				return
			}
		}

		s.audit(r, "invoice", inv.ID, "update",
			audit.DiffSnapshots(before, store.InvoiceSnapshot(inv)))
		s.flashAndRedirect(w, r, "success", "Invoice updated.", inspectionURL(id))
		return
	}

	s.render(w, r, "invoice_edit.html", map[string]any{
		"Inspection": i,
		"Invoice":    inv,
		"Statuses":   types.InvoiceStatuses,
	})
}

// handleCHATracker lists all commissions with a per-CHA per-status summary.
func (s *Server) handleCHATracker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.store.ListCommissions(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	summary, err := s.store.CommissionSummary(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "cha_tracker.html", map[string]any{
		"Rows":     rows,
		"Summary":  summary,
		"Statuses": types.CommissionStatuses,
	})
}

func (s *Server) handleCommissionGenerate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	c, err := s.store.GenerateCommission(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoCHA):
			s.flashAndRedirect(w, r, "warning", "No CHA linked.", inspectionURL(id))
		default:
			s.notFoundOr500(w, r, err)
		}
		return
	}

	s.audit(r, "commission", c.ID, "generate", "amount: "+c.Amount.String())
	s.flashAndRedirect(w, r, "success", "Commission calculated.", inspectionURL(id))
}

func (s *Server) handleCommissionMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	c, err := s.store.CommissionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	status := types.CommissionStatus(r.FormValue("status"))
	valid := false
	for _, st := range types.CommissionStatuses {
		if st == status {
			valid = true
			break
		}
	}
	if !valid {
		status = types.CommissionPaid
	}

	if err := s.store.UpdateCommissionStatus(ctx, id, status); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.audit(r, "commission", id, "mark",
		audit.DiffSnapshots(store.CommissionSnapshot(c), map[string]string{
			"amount": c.Amount.String(),
			"status": string(status),
		}))
	s.flashAndRedirect(w, r, "success", "Commission updated.", "/cha-tracker")
}

func (s *Server) handleCommissionUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	c, err := s.store.CommissionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		s.flashAndRedirect(w, r, "warning", "Invalid amount.", "/cha-tracker")
		return
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	if err := s.store.UpdateCommissionAmount(ctx, id, amount); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.audit(r, "commission", id, "amount",
		"amount: "+c.Amount.String()+" -> "+amount.Round(2).String())
	s.flashAndRedirect(w, r, "success", "Commission amount updated.", "/cha-tracker")
}
