package server

import (
	"errors"
	"net/http"

	"certtrack/internal/audit"
	"certtrack/internal/report"
	"certtrack/internal/store"
	"certtrack/internal/types"
)

// handleReportEdit edits the inspection's report. The "generate" action
// fills the body from the active template; saving as final moves the
// inspection to REPORT_GENERATED.
func (s *Server) handleReportEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	rep, err := s.store.EnsureReport(ctx, id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	if r.Method == http.MethodPost {
		oldBody := rep.Body
		body := r.FormValue("body")

		if r.FormValue("action") == "generate" {
			t, err := s.store.ActiveTemplate(ctx)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				s.serverError(w, err)
				return
			}
			if t != nil && t.HTMLSnippet != "" {
				f := report.FieldsFor(i)
				if findings := r.FormValue("findings"); findings != "" {
					f.Findings = findings
				}
				body = report.Render(t.HTMLSnippet, f)
			}
		}

		rep.Body = body
		rep.Status = types.ReportDraft
		if r.FormValue("save_as") == "final" {
			rep.Status = types.ReportFinal
		}
		if err := s.store.SaveReport(ctx, rep); err != nil {
			s.serverError(w, err)
			return
		}
		if rep.Status == types.ReportFinal {
			if err := s.store.UpdateInspectionStatus(ctx, id, types.InspectionReportGenerated); err != nil {
				s.serverError(w, err)
				return
			}
		}

		if oldBody != rep.Body {
			s.audit(r, "inspection", id, "report", "body: "+audit.DiffText(oldBody, rep.Body))
		}
		s.flashAndRedirect(w, r, "success", "Report saved.", inspectionURL(id))
		return
	}

	s.render(w, r, "report_edit.html", map[string]any{
		"Inspection": i,
		"Report":     rep,
	})
}

// handleReportView shows the rendered report read-only.
func (s *Server) handleReportView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathID(r)

	rep, err := s.store.ReportByInspection(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	i, err := s.store.InspectionByID(ctx, id)
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	s.render(w, r, "report_view.html", map[string]any{
		"Inspection": i,
		"Report":     rep,
	})
}
