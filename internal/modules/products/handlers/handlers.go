// Package handlers provides HTTP handlers for the product catalogue.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for product endpoints
type Handler struct {
	service *products.Service
	authMW  *auth.Middleware
	log     zerolog.Logger
}

// NewHandler creates a new products handler
func NewHandler(service *products.Service, authMW *auth.Middleware, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		authMW:  authMW,
		log:     log.With().Str("handler", "products").Logger(),
	}
}

// RegisterRoutes registers product routes under /products
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.With(h.authMW.RequireRole(domain.RoleFarmer)).Post("/", h.HandleCreate)
	})
}

// HandleList handles GET /api/products?q=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	list, err := h.service.Search(r.Context(), q)
	if err != nil {
		h.log.Error().Err(err).Str("q", q).Msg("Failed to list products")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to list products")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"products": list,
		"count":    len(list),
		"query":    q,
	})
}

// HandleGet handles GET /api/products/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, "Invalid product id")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if errors.Is(err, products.ErrNotFound) {
		utils.WriteError(w, h.log, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("product_id", id).Msg("Failed to get product")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to get product")
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, p)
}

// HandleCreate handles POST /api/products (multipart with optional "image" file, or JSON)
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	price, err := in.Float("price", 0)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	qty, err := in.Int("quantity", 0)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	var upload *products.Upload
	if r.MultipartForm != nil {
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			upload = &products.Upload{Filename: header.Filename, Body: file}
		}
	}

	s := auth.FromContext(r.Context())
	p, err := h.service.Create(r.Context(), s.UserID, products.CreateRequest{
		Name:     in.String("name"),
		Price:    price,
		Quantity: qty,
		Category: in.String("category"),
		Location: in.String("location"),
	}, upload)
	switch {
	case errors.Is(err, products.ErrInvalidInput), errors.Is(err, products.ErrUnsupportedImage):
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Int64("farmer_id", s.UserID).Msg("Failed to create product")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.log.Info().Int64("product_id", p.ID).Int64("farmer_id", s.UserID).Msg("Product listed")
	utils.WriteJSON(w, h.log, http.StatusCreated, p)
}
