// Package handlers provides HTTP handlers for the role dashboards.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/modules/dashboard"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for dashboards
type Handler struct {
	service *dashboard.Service
	authMW  *auth.Middleware
	log     zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *dashboard.Service, authMW *auth.Middleware, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		authMW:  authMW,
		log:     log.With().Str("handler", "dashboard").Logger(),
	}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.authMW.RequireAuth).Get("/dashboard", h.HandleDashboard)
	r.With(h.authMW.RequireRole(domain.RoleAdmin)).Get("/admin/dashboard", h.HandleAdmin)
}

// HandleDashboard handles GET /api/dashboard, dispatching on the session role
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())

	var (
		view interface{}
		err  error
	)
	switch s.Role {
	case domain.RoleFarmer:
		view, err = h.service.Farmer(r.Context(), s.UserID, r.URL.Query().Get("product"))
	case domain.RoleConsumer:
		view, err = h.service.Consumer(r.Context(), s.UserID, r.URL.Query().Get("q"))
	case domain.RoleAdmin:
		view, err = h.service.Admin(r.Context())
	default:
		utils.WriteError(w, h.log, http.StatusForbidden, "access denied")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("role", string(s.Role)).Int64("user_id", s.UserID).Msg("Failed to build dashboard")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"role": s.Role,
		"view": view,
	})
}

// HandleAdmin handles GET /api/admin/dashboard
func (h *Handler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Admin(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build admin dashboard")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, view)
}
