// Package handlers provides HTTP handlers for language selection and ad-hoc translation.
package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/i18n"
	"github.com/nexusfarm/nexus/internal/utils"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for i18n endpoints
type Handler struct {
	translator  *i18n.Translator
	sessions    *auth.Sessions
	defaultLang string
	log         zerolog.Logger
}

// NewHandler creates a new i18n handler
func NewHandler(translator *i18n.Translator, sessions *auth.Sessions, defaultLang string, log zerolog.Logger) *Handler {
	return &Handler{
		translator:  translator,
		sessions:    sessions,
		defaultLang: defaultLang,
		log:         log.With().Str("handler", "i18n").Logger(),
	}
}

// RegisterRoutes registers language routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/language/{code}", h.HandleSetLanguage)
	r.Post("/translate", h.HandleTranslate)
}

// HandleSetLanguage handles GET /api/language/{code}
func (h *Handler) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	code, ok := i18n.NormalizeLanguage(chi.URLParam(r, "code"))
	if !ok {
		utils.WriteError(w, h.log, http.StatusBadRequest, "invalid language code")
		return
	}

	s := auth.FromContext(r.Context())
	s.Lang = code
	if err := h.sessions.Issue(w, s); err != nil {
		h.log.Error().Err(err).Msg("Failed to issue session")
		utils.WriteError(w, h.log, http.StatusInternalServerError, "Failed to set language")
		return
	}

	http.Redirect(w, r, redirectTarget(r), http.StatusFound)
}

// HandleTranslate handles POST /api/translate
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	in, err := utils.ReadInput(r)
	if err != nil {
		utils.WriteError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}

	lang := auth.FromContext(r.Context()).Lang
	if lang == "" {
		lang = h.defaultLang
	}

	res := h.translator.Translate(r.Context(), in.String("text"), lang)
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"text":    res.Text,
		"outcome": res.Outcome,
		"lang":    lang,
	})
}

// redirectTarget returns the path of a same-host Referer, or "/".
func redirectTarget(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	target := ref.Path
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	return target
}
