// Package handlers provides HTTP handlers for demand forecasts.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/modules/forecasting"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for forecast endpoints
type Handler struct {
	service *forecasting.Service
	authMW  *auth.Middleware
	log     zerolog.Logger
}

// NewHandler creates a new forecasting handler
func NewHandler(service *forecasting.Service, authMW *auth.Middleware, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		authMW:  authMW,
		log:     log.With().Str("handler", "forecasting").Logger(),
	}
}

// RegisterRoutes registers forecast routes under /forecast
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/forecast", func(r chi.Router) {
		r.Get("/", h.HandleForecast)
		r.Get("/history/{product}", h.HandleHistory)
		r.With(h.authMW.RequireRole(domain.RoleFarmer)).Post("/check", h.HandleCheck)
	})
}

// HandleForecast handles GET /api/forecast
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	results := h.service.Today(r.URL.Query().Get("product"))

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"status":       h.service.Status().String(),
		"generated_at": h.service.Now().UTC().Format(time.RFC3339),
		"forecasts":    results,
	})
}

// HandleCheck handles POST /api/forecast/check. The body is null when nothing can be predicted.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	product := in.String("product")
	check := h.service.CheckProduct(product)
	h.log.Debug().Str("product", product).Bool("found", check != nil).Msg("Forecast check")

	utils.WriteJSON(w, h.log, http.StatusOK, check)
}

// HandleHistory handles GET /api/forecast/history/{product}
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	insight, ok := h.service.History(chi.URLParam(r, "product"))
	if !ok {
		utils.WriteError(w, h.log, http.StatusNotFound, "No history for product")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, insight)
}
