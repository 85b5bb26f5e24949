// Package server implements the role-gated, server-rendered web interface.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"certtrack/internal/config"
	"certtrack/internal/store"
	"certtrack/internal/types"
)

// Server wires the HTTP routes to the store.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	logger   *zap.Logger
	sessions *SessionManager
	renderer *Renderer
	router   *mux.Router
}

// New constructs the server and its routes.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := NewRenderer(cfg.Server.TemplatesDir, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		logger:   logger,
		sessions: NewSessionManager(cfg.SessionTTL()),
		renderer: renderer,
	}
	s.routes()
	return s, nil
}

// Close releases the renderer's watcher.
func (s *Server) Close() error {
	return s.renderer.Close()
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SweepSessions drops expired sessions and reports how many were removed.
// Meant to be called periodically by the owning process.
func (s *Server) SweepSessions() int {
	return s.sessions.Sweep()
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	// Auth
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	admin := s.requireRole(types.RoleAdmin)
	staff := s.requireRole(types.RoleAdmin, types.RoleEngineer, types.RoleAccountant)
	field := s.requireRole(types.RoleAdmin, types.RoleEngineer)
	billing := s.requireRole(types.RoleAdmin, types.RoleAccountant)

	// Dashboard and search
	r.Handle("/", staff(http.HandlerFunc(s.handleDashboard))).Methods(http.MethodGet)
	r.Handle("/search", staff(http.HandlerFunc(s.handleSearch))).Methods(http.MethodGet)
	r.Handle("/notifications", staff(http.HandlerFunc(s.handleNotifications))).Methods(http.MethodGet)

	// Admin: users, clients, CHAs, templates
	r.Handle("/users", admin(http.HandlerFunc(s.handleUsers))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/clients", admin(http.HandlerFunc(s.handleClients))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/clients/{id:[0-9]+}/delete", admin(http.HandlerFunc(s.handleClientDelete))).Methods(http.MethodPost)
	r.Handle("/chas", admin(http.HandlerFunc(s.handleCHAs))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/chas/{id:[0-9]+}/update", admin(http.HandlerFunc(s.handleCHAUpdate))).Methods(http.MethodPost)
	r.Handle("/chas/{id:[0-9]+}/delete", admin(http.HandlerFunc(s.handleCHADelete))).Methods(http.MethodPost)
	r.Handle("/templates", admin(http.HandlerFunc(s.handleTemplates))).Methods(http.MethodGet, http.MethodPost)

	// Inspections
	r.Handle("/inspections/new", field(http.HandlerFunc(s.handleInspectionCreate))).Methods(http.MethodPost)
	r.Handle("/inspections/{id:[0-9]+}", staff(http.HandlerFunc(s.handleInspectionDetail))).Methods(http.MethodGet)
	r.Handle("/inspections/{id:[0-9]+}/edit", field(http.HandlerFunc(s.handleInspectionEdit))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/inspections/{id:[0-9]+}/delete", admin(http.HandlerFunc(s.handleInspectionDelete))).Methods(http.MethodPost)
	r.Handle("/inspections/{id:[0-9]+}/status", field(http.HandlerFunc(s.handleInspectionStatus))).Methods(http.MethodPost)
	r.Handle("/inspections/{id:[0-9]+}/assign", admin(http.HandlerFunc(s.handleAssignEngineer))).Methods(http.MethodPost)

	// Attachments
	r.Handle("/inspections/{id:[0-9]+}/files", field(http.HandlerFunc(s.handleUpload))).Methods(http.MethodPost)
	r.Handle("/files/{id:[0-9]+}", staff(http.HandlerFunc(s.handleDownload))).Methods(http.MethodGet)
	r.Handle("/files/{id:[0-9]+}/delete", field(http.HandlerFunc(s.handleAttachmentDelete))).Methods(http.MethodPost)

	// Reports
	r.Handle("/reports/{id:[0-9]+}/edit", field(http.HandlerFunc(s.handleReportEdit))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/reports/{id:[0-9]+}/view", staff(http.HandlerFunc(s.handleReportView))).Methods(http.MethodGet)

	// Invoices and commissions
	r.Handle("/invoices/{id:[0-9]+}", billing(http.HandlerFunc(s.handleInvoice))).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/cha-tracker", billing(http.HandlerFunc(s.handleCHATracker))).Methods(http.MethodGet)
	r.Handle("/commissions/generate/{id:[0-9]+}", billing(http.HandlerFunc(s.handleCommissionGenerate))).Methods(http.MethodPost)
	r.Handle("/commissions/{id:[0-9]+}/mark", billing(http.HandlerFunc(s.handleCommissionMark))).Methods(http.MethodPost)
	r.Handle("/commissions/{id:[0-9]+}/update", billing(http.HandlerFunc(s.handleCommissionUpdate))).Methods(http.MethodPost)

	s.router = r
}

// requestLogger logs every request with method, path, status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requireRole gates a route: unauthenticated requests bounce to the login
// page, authenticated requests with the wrong role bounce to the dashboard.
func (s *Server) requireRole(roles ...types.Role) func(http.Handler) http.Handler {
	allowed := make(map[types.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := s.sessions.sessionFrom(r)
			if sess == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if _, ok := allowed[sess.Role]; !ok {
				s.sessions.AddFlash(sess, "danger", "Unauthorized.")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// render wraps the renderer with the common view data every page expects.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	sess := s.sessions.sessionFrom(r)
	if sess != nil {
		data["Session"] = sess
	}
	data["Flashes"] = s.sessions.PopFlashes(sess)
	s.renderer.Render(w, page, data)
}

// flashAndRedirect queues a flash on the request's session and redirects.
func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, level, msg, url string) {
	s.sessions.AddFlash(s.sessions.sessionFrom(r), level, msg)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// pathID extracts the {id} route variable.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// formID parses an optional numeric form field; empty means 0.
func formID(r *http.Request, field string) int64 {
	v := r.FormValue(field)
	if v == "" {
		return 0
	}
	id, _ := strconv.ParseInt(v, 10, 64)
	return id
}
