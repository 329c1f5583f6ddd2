// Package handlers provides HTTP handlers for registration, login and the current user.
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/modules/users"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for auth endpoints
type Handler struct {
	service     *users.Service
	sessions    *auth.Sessions
	defaultLang string
	log         zerolog.Logger
}

// NewHandler creates a new users handler
func NewHandler(service *users.Service, sessions *auth.Sessions, defaultLang string, log zerolog.Logger) *Handler {
	return &Handler{
		service:     service,
		sessions:    sessions,
		defaultLang: defaultLang,
		log:         log.With().Str("handler", "users").Logger(),
	}
}

// RegisterRoutes registers auth routes under /auth
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.Get("/me", h.HandleMe)
	})
}

// HandleRegister handles POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.Register(r.Context(), users.RegisterRequest{
		Username: in.String("username"),
		Phone:    in.String("phone"),
		Password: in.String("password"),
		Role:     domain.Role(in.String("role")),
	})
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, users.ErrDuplicateUser):
		utils.WriteError(w, h.log, http.StatusConflict, "Username or phone already exists")
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to register user")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Registration failed")
		return
	}

	if !h.startSession(w, r, u) {
		return
	}
	utils.WriteJSON(w, h.log, http.StatusCreated, u)
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.Login(r.Context(), in.String("username"), in.String("password"))
	if errors.Is(err, users.ErrInvalidCredentials) {
		utils.WriteError(w, h.log, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to log in")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Login failed")
		return
	}

	if !h.startSession(w, r, u) {
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, u)
}

// HandleLogout handles POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s := auth.FromContext(r.Context()); s.Authenticated() {
		h.service.Logout(r.Context(), s.UserID)
	}
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())
	if !s.Authenticated() {
		utils.WriteError(w, h.log, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.service.Get(r.Context(), s.UserID)
	if errors.Is(err, users.ErrNotFound) {
		h.sessions.Clear(w)
		utils.WriteError(w, h.log, http.StatusUnauthorized, "authentication required")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", s.UserID).Msg("Failed to load current user")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to load user")
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"user": u,
		"lang": langOrDefault(s.Lang, h.defaultLang),
	})
}

// startSession issues the cookie, keeping any language already chosen while anonymous
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *users.User) bool {
	lang := langOrDefault(auth.FromContext(r.Context()).Lang, h.defaultLang)
	err := h.sessions.Issue(w, auth.Session{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		Lang:     lang,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue session")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to start session")
		return false
	}
	return true
}

func langOrDefault(lang, def string) string {
	if lang != "" {
		return lang
	}
	return def
}
