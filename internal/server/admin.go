package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"certtrack/internal/types"
)

// overdueReportAge is how old a COMPLETED inspection may be before the
// notifications page flags its missing report.
const overdueReportAge = 72 * time.Hour

// handleClients lists clients and creates new ones.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodPost {
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			s.flashAndRedirect(w, r, "warning", "Name required.", "/clients")
			return
		}
		_, err := s.store.CreateClient(ctx, &types.Client{
			Name:           name,
			GSTNumber:      strings.TrimSpace(r.FormValue("gst_number")),
			BillingAddress: r.FormValue("billing_address"),
		})
		if err != nil {
			s.serverError(w, err)
			return
		}
		s.flashAndRedirect(w, r, "success", "Client added.", "/clients")
		return
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "clients.html", map[string]any{"Clients": clients})
}

func (s *Server) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteClient(r.Context(), pathID(r)); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.flashAndRedirect(w, r, "info", "Client deleted.", "/clients")
}

// handleCHAs lists CHAs and creates new ones.
func (s *Server) handleCHAs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodPost {
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			s.flashAndRedirect(w, r, "warning", "Name required.", "/chas")
			return
		}
		rate := decimal.Zero
		if v := strings.TrimSpace(r.FormValue("commission_rate")); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				s.flashAndRedirect(w, r, "warning", "Invalid commission rate.", "/chas")
				return
			}
			rate = d
		}
		_, err := s.store.CreateCHA(ctx, &types.CHA{
			Name:           name,
			Contact:        strings.TrimSpace(r.FormValue("contact")),
			CommissionRate: rate,
		})
		if err != nil {
			s.serverError(w, err)
			return
		}
		s.flashAndRedirect(w, r, "success", "CHA added.", "/chas")
		return
	}

	chas, err := s.store.ListCHAs(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "chas.html", map[string]any{"CHAs": chas})
}

func (s *Server) handleCHAUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := s.store.CHAByID(ctx, pathID(r))
	if err != nil {
		s.notFoundOr500(w, r, err)
		return
	}

	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		c.Name = name
	}
	c.Contact = strings.TrimSpace(r.FormValue("contact"))
	if v := strings.TrimSpace(r.FormValue("commission_rate")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			s.flashAndRedirect(w, r, "warning", "Invalid commission rate.", "/chas")
			return
		}
		c.CommissionRate = d
	}

	if err := s.store.UpdateCHA(ctx, c); err != nil {
		s.serverError(w, err)
		return
	}
	s.flashAndRedirect(w, r, "success", "CHA updated.", "/chas")
}

func (s *Server) handleCHADelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCHA(r.Context(), pathID(r)); err != nil {
		s.notFoundOr500(w, r, err)
		return
	}
	s.flashAndRedirect(w, r, "info", "CHA deleted.", "/chas")
}

// handleTemplates manages report templates: create and toggle.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodPost {
		switch {
		case r.FormValue("create") != "":
			name := strings.TrimSpace(r.FormValue("name"))
			if name == "" {
				s.flashAndRedirect(w, r, "warning", "Name required.", "/templates")
				return
			}
			_, err := s.store.CreateTemplate(ctx, &types.ReportTemplate{
				Name:        name,
				Active:      r.FormValue("active") != "",
				AIPrompt:    r.FormValue("ai_prompt"),
				HTMLSnippet: r.FormValue("html_snippet"),
			})
			if err != nil {
				s.serverError(w, err)
				return
			}
		case r.FormValue("toggle") != "":
			if err := s.store.ToggleTemplate(ctx, formID(r, "template_id")); err != nil {
				s.notFoundOr500(w, r, err)
				return
			}
		}
		http.Redirect(w, r, "/templates", http.StatusSeeOther)
		return
	}

	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "templates.html", map[string]any{"Templates": templates})
}

// handleNotifications shows overdue reports, inspections missing invoices
// and commissions still due.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overdue, err := s.store.OverdueReports(ctx, overdueReportAge)
	if err != nil {
		s.serverError(w, err)
		return
	}
	missing, err := s.store.MissingInvoices(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	due, err := s.store.DueCommissions(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "notifications.html", map[string]any{
		"OverdueReports":  overdue,
		"MissingInvoices": missing,
		"DueCommissions":  due,
	})
}
