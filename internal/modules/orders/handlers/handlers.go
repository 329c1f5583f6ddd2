// Package handlers provides HTTP handlers for placing and managing orders.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for order endpoints
type Handler struct {
	service        *orders.Service
	authMW         *auth.Middleware
	bus            *events.Bus
	originPatterns []string
	log            zerolog.Logger
}

// NewHandler creates a new orders handler. bus may be nil, which disables the stream.
func NewHandler(service *orders.Service, authMW *auth.Middleware, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		authMW:  authMW,
		bus:     bus,
		log:     log.With().Str("handler", "orders").Logger(),
	}
}

// SetOriginPatterns sets the cross-origin hosts allowed to open the order stream
func (h *Handler) SetOriginPatterns(patterns []string) {
	h.originPatterns = patterns
}

// RegisterRoutes registers order routes under /orders
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(h.authMW.RequireAuth)

		r.Get("/", h.HandleList)
		r.Get("/stream", h.HandleStream)
		r.With(h.authMW.RequireRole(domain.RoleConsumer)).Post("/", h.HandlePlace)
		r.With(h.authMW.RequireRole(domain.RoleFarmer)).Post("/{id}/{action}", h.HandleManage)
	})
}

// HandleList handles GET /api/orders
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	s := auth.FromContext(r.Context())
	list, err := h.service.ListFor(r.Context(), s.Role, s.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", s.UserID).Msg("Failed to list orders")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"orders": list,
		"count":  len(list),
	})
}

// HandlePlace handles POST /api/orders {product_id, quantity}
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := in.Int("product_id", 0)
	if err != nil || productID <= 0 {
		utils.WriteError(w, h.log, http.StatusBadRequest, "product_id is required")
		return
	}
	qty, err := in.Int("quantity", 1)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	s := auth.FromContext(r.Context())
	order, err := h.service.Place(r.Context(), s.UserID, int64(productID), qty)
	if err != nil {
		h.writeServiceError(w, err, "Failed to place order")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusCreated, order)
}

// HandleManage handles POST /api/orders/{id}/{action}
func (h *Handler) HandleManage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, "Invalid order id")
		return
	}

	s := auth.FromContext(r.Context())
	order, err := h.service.Manage(r.Context(), s.UserID, id, chi.URLParam(r, "action"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to update order")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, order)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrProductNotFound):
		utils.WriteError(w, h.log, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrNotOwner):
		utils.WriteError(w, h.log, http.StatusForbidden, err.Error())
	case errors.Is(err, orders.ErrNotPending), errors.Is(err, orders.ErrInsufficientStock):
		utils.WriteError(w, h.log, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrInvalidQuantity), errors.Is(err, orders.ErrInvalidAction):
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(fallback)
		utils.WriteError(w, h.log, http.StatusInternalServerError, fallback)
	}
}
