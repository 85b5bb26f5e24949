package server

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"certtrack/internal/store"
	"certtrack/internal/types"
)

// handleRegister creates accounts. The first account ever becomes ADMIN; a
// logged-in admin may pick the new user's role; everyone else registers as
// ENGINEER.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	firstUser := count == 0

	sess := s.sessions.sessionFrom(r)
	isAdmin := sess != nil && sess.Role == types.RoleAdmin
	canChooseRole := firstUser || isAdmin

	roles := []types.Role{types.RoleEngineer}
	if canChooseRole {
		roles = types.Roles
	}
	// Visitors registering have no session for a flash to live in, so form
	// problems are rendered on the page itself, like the login form does.
	renderForm := func(errMsg string) {
		s.render(w, r, "register.html", map[string]any{
			"Roles":         roles,
			"CanChooseRole": canChooseRole,
			"Error":         errMsg,
		})
	}

	if r.Method == http.MethodGet {
		renderForm("")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	if name == "" || email == "" || password == "" {
		renderForm("Name, email and password are required.")
		return
	}

	role := types.RoleEngineer
	switch {
	case firstUser:
		role = types.RoleAdmin
	case isAdmin:
		if chosen := types.Role(r.FormValue("role")); types.ValidRole(chosen) {
			role = chosen
		}
	}

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		renderForm("Email already registered.")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.serverError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.serverError(w, err)
		return
	}

	if _, err := s.store.CreateUser(ctx, &types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        strings.TrimSpace(r.FormValue("phone")),
	}); err != nil {
		s.serverError(w, err)
		return
	}

	s.render(w, r, "login.html", map[string]any{"Notice": "Registered. Please login."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "login.html", nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	u, err := s.store.UserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.serverError(w, err)
			return
		}
		// Burn a comparison anyway so missing accounts cost the same.
		_ = bcrypt.CompareHashAndPassword(invalidHash, []byte(password))
		s.render(w, r, "login.html", map[string]any{"Error": "Invalid credentials."})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.render(w, r, "login.html", map[string]any{"Error": "Invalid credentials."})
		return
	}

	sess := s.sessions.Create(u)
	setCookie(w, sess)
	s.sessions.AddFlash(sess, "success", "Welcome "+u.Name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// invalidHash is a bcrypt hash of an unguessable value, used to equalize
// login timing when the email does not exist.
var invalidHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("certtrack-no-such-user"), bcrypt.MinCost)
	return h
}()

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Destroy(c.Value)
	}
	clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleUsers lists accounts and lets the admin change roles.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method == http.MethodPost {
		uid := formID(r, "user_id")
		role := types.Role(r.FormValue("role"))
		if !types.ValidRole(role) {
			s.flashAndRedirect(w, r, "warning", "Invalid role.", "/users")
			return
		}
		if err := s.store.UpdateUserRole(ctx, uid, role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			s.serverError(w, err)
			return
		}
		s.flashAndRedirect(w, r, "success", "Role updated.", "/users")
		return
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, r, "users.html", map[string]any{
		"Users": users,
		"Roles": types.Roles,
	})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("handler failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
