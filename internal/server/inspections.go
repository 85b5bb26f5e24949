package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"certtrack/internal/audit"
	"certtrack/internal/store"
	"certtrack/internal/types"
	"certtrack/internal/valuation"
)

// handleDashboard renders inspections grouped by status, honoring the
// filter query parameters.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := store.Filter{
		Status:     types.InspectionStatus(q.Get("status")),
		Type:       types.InspectionType(q.Get("type")),
		CHAID:      parseID(q.Get("cha_id")),
		EngineerID: parseID(q.Get("engineer_id")),
		Query:      strings.TrimSpace(q.Get("q")),
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			f.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Inclusive end of day.
			f.To = t.Add(24*time.Hour - time.Second)
		}
	}

	inspections, err := s.store.ListInspections(ctx, f)
	if err != nil {
		s.serverError(w, err)
		return
	}

	groups := make(map[types.InspectionStatus][]types.Inspection, len(types.InspectionStatuses))
	for _, st := range types.InspectionStatuses {
		groups[st] = nil
	}
	for _, i := range inspections {
		groups[i.Status] = append(groups[i.Status], i)
	}

	chas, err := s.store.ListCHAs(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	engineers, err := s.store.ListEngineers(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "dashboard.html", map[string]any{
		"Groups":    groups,
		"Statuses":  types.InspectionStatuses,
		"Types":     types.InspectionTypes,
		"CHAs":      chas,
		"Engineers": engineers,
		"Clients":   clients,
		"Filter":    f,
	})
}

// handleSearch is the global free-text search across inspections, clients
// and invoices.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	inspections, err := s.store.ListInspections(ctx, store.Filter{Query: q})
	if err != nil {
		s.serverError(w, err)
		return
	}
	clients, err := s.store.SearchClients(ctx, q)
	if err != nil {
		s.serverError(w, err)
		return
	}
	invoices, err := s.store.SearchInvoices(ctx, q)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "search_results.html", map[string]any{
		"Query":       q,
		"Inspections": inspections,
		"Clients":     clients,
		"Invoices":    invoices,
	})
}

func (s *Server) handleInspectionCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.sessionFrom(r)

	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		s.flashAndRedirect(w, r, "warning", "Invalid date.", "/")
		return
	}

	typ := types.InspectionType(r.FormValue("type"))
	if !types.ValidInspectionType(typ) {
		typ = types.TypeScrapPSIC
	}

	status := types.InspectionStatus(r.FormValue("status"))
	if !types.ValidInspectionStatus(status) {
		status = types.InspectionPending
	}

	// Engineers creating an inspection default the assignee to themselves.
	engineerID := formID(r, "engineer_id")
	if engineerID == 0 && sess.Role == types.RoleEngineer {
		engineerID = sess.UserID
	}

	i := &types.Inspection{
		Type:       typ,
		Date:       date,
		ClientID:   formID(r, "client_id"),
		Location:   strings.TrimSpace(r.FormValue("location")),
		Asset:      strings.TrimSpace(r.FormValue("asset")),
		Status:     status,
		EngineerID: engineerID,
		CHAID:      formID(r, "cha_id"),
	}
	applyValuationFields(i, r)
	if override := strings.TrimSpace(r.FormValue("commission_rate_override")); override != "" {
		if d, err := decimal.NewFromString(override); err == nil {
			i.CommissionRateOverride = &d
		}
	}

	id, err := s.store.CreateInspection(ctx, i)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.audit(r, "inspection", id, "create", "")
	s.flashAndRedirect(w, r, "success", "Inspection "+i.PublicID+" created.", inspectionURL(id))
}

func (s *Server) handleInspectionDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	rep, err := s.store.ReportByInspection(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, err)
		return
	}
	inv, err := s.store.InvoiceByInspection(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, err)
		return
	}
	com, err := s.store.CommissionByInspection(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, err)
		return
	}
	files, err := s.store.ListAttachments(ctx, id)
	if err != nil {
		s.serverError(w, err)
		return
	}
	trail, err := s.store.ListAudit(ctx, "inspection", id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	data := map[string]any{
		"Inspection":  i,
		"Report":      rep,
		"Invoice":     inv,
		"Commission":  com,
		"Attachments": files,
		"Audit":       trail,
		"Statuses":    types.InspectionStatuses,
	}
	if i.Type == types.TypeMachineryValuation && i.PurchaseYear > 0 {
		age := valuation.AgeQuarters(i.PurchaseYear, time.Now().Year())
		data["DepreciationPct"] = valuation.DepreciationPct(age)
		data["DepreciatedValue"] = valuation.DepreciatedValue(i.OriginalCost, age)
	}
	s.render(w, r, "inspection_detail.html", data)
}

func (s *Server) handleInspectionEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)
	sess := s.sessions.sessionFrom(r)

	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	// Engineers may only edit their own inspections.
	if sess.Role == types.RoleEngineer && i.EngineerID != sess.UserID {
		s.flashAndRedirect(w, r, "danger", "Unauthorized.", inspectionURL(id))
		return
	}

	if r.Method == http.MethodPost {
		before := store.InspectionSnapshot(i)

		if date, err := time.Parse("2006-01-02", r.FormValue("date")); err == nil {
			i.Date = date
		}
		i.ClientID = formID(r, "client_id")
		i.Location = strings.TrimSpace(r.FormValue("location"))
		i.Asset = strings.TrimSpace(r.FormValue("asset"))
		applyValuationFields(i, r)

		// Status, engineer, CHA and commission override are admin-only.
		if sess.Role == types.RoleAdmin {
			if st := types.InspectionStatus(r.FormValue("status")); types.ValidInspectionStatus(st) {
				i.Status = st
			}
			if eid := formID(r, "engineer_id"); eid != 0 {
				i.EngineerID = eid
			}
			i.CHAID = formID(r, "cha_id")
			i.CommissionRateOverride = nil
			if override := strings.TrimSpace(r.FormValue("commission_rate_override")); override != "" {
				if d, err := decimal.NewFromString(override); err == nil {
					i.CommissionRateOverride = &d
				}
			}
		}

		if err := s.store.UpdateInspection(ctx, i); err != nil {
			s.serverError(w, err)
			return
		}

		after, err := s.store.InspectionByID(ctx, id)
		if err == nil {
			s.audit(r, "inspection", id, "update",
				audit.DiffSnapshots(before, store.InspectionSnapshot(after)))
		}
		s.flashAndRedirect(w, r, "success", "Inspection updated.", inspectionURL(id))
		return
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	chas, err := s.store.ListCHAs(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	engineers, err := s.store.ListEngineers(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "inspection_edit.html", map[string]any{
		"Inspection": i,
		"Clients":    clients,
		"CHAs":       chas,
		"Engineers":  engineers,
		"Statuses":   types.InspectionStatuses,
		"Types":      types.InspectionTypes,
	})
}

func (s *Server) handleInspectionDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.store.DeleteInspection(r.Context(), id); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.flashAndRedirect(w, r, "info", "Inspection deleted.", "/")
}

func (s *Server) handleInspectionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)
	sess := s.sessions.sessionFrom(r)

	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	if sess.Role == types.RoleEngineer && i.EngineerID != sess.UserID {
		s.flashAndRedirect(w, r, "danger", "Unauthorized.", inspectionURL(id))
		return
	}

	status := types.InspectionStatus(r.FormValue("status"))
	if !types.ValidInspectionStatus(status) {
		s.flashAndRedirect(w, r, "warning", "Invalid status.", inspectionURL(id))
		return
	}

	if err := s.store.UpdateInspectionStatus(ctx, id, status); err != nil {
		s.serverError(w, err)
		return
	}
	s.audit(r, "inspection", id, "status",
		fmt.Sprintf("status: %q -> %q", i.Status, status))
	s.flashAndRedirect(w, r, "success", "Status updated.", inspectionURL(id))
}

func (s *Server) handleAssignEngineer(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.store.AssignEngineer(r.Context(), id, formID(r, "engineer_id")); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.audit(r, "inspection", id, "assign", "")
	s.flashAndRedirect(w, r, "success", "Engineer assigned.", inspectionURL(id))
}

// applyValuationFields reads the machinery-valuation inputs, which are
// blank for other inspection types.
func applyValuationFields(i *types.Inspection, r *http.Request) {
	if y := r.FormValue("purchase_year"); y != "" {
		if n, err := strconv.Atoi(y); err == nil && n > 0 {
			i.PurchaseYear = n
		}
	}
	if c := strings.TrimSpace(r.FormValue("original_cost")); c != "" {
		if d, err := decimal.NewFromString(c); err == nil && !d.IsNegative() {
			i.OriginalCost = d
		}
	}
}

// audit records a mutation against the audit log; failures are logged and
// swallowed so bookkeeping never blocks the workflow.
func (s *Server) audit(r *http.Request, entity string, entityID int64, action, diff string) {
	var actorID int64
	if sess := s.sessions.sessionFrom(r); sess != nil {
		actorID = sess.UserID
	}
	err := s.store.AppendAudit(r.Context(), &types.AuditEntry{
		ActorID:  actorID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Diff:     diff,
	})
	if err != nil {
		s.logger.Warn("audit append failed", zap.Error(err))
	}
}

func (s *Server) notFoundOr500(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	s.serverError(w, err)
}

func inspectionURL(id int64) string {
	return fmt.Sprintf("/inspections/%d", id)
}

func parseID(v string) int64 {
	id, _ := strconv.ParseInt(v, 10, 64)
	return id
}
