package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/i18n"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, backend string) (http.Handler, *auth.Sessions) {
	t.Helper()
	sessions := auth.NewSessions("0123456789abcdef0123456789abcdef", time.Hour, false)
	r := chi.NewRouter()
	r.Use(auth.NewMiddleware(sessions, zerolog.Nop()).Load)
	tr := i18n.NewTranslator(backend, "", nil, zerolog.Nop())
	NewHandler(tr, sessions, "en", zerolog.Nop()).RegisterRoutes(r)
	return r, sessions
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestSetLanguage(t *testing.T) {
	router, sessions := setup(t, "")

	t.Run("anonymous with referer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/language/HI", nil)
		req.Header.Set("Referer", "http://example.com/products?q=okra")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/products?q=okra", rec.Header().Get("Location"))

		s, err := sessions.Decode(cookieFrom(t, rec).Value)
		require.NoError(t, err)
		assert.Equal(t, "hi", s.Lang)
		assert.False(t, s.Authenticated())
	})

	t.Run("keeps the logged-in user", func(t *testing.T) {
		value, err := sessions.Encode(auth.Session{UserID: 3, Username: "ravi", Role: "farmer", Lang: "en"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/language/bn", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		s, err := sessions.Decode(cookieFrom(t, rec).Value)
		require.NoError(t, err)
		assert.Equal(t, int64(3), s.UserID)
		assert.Equal(t, "bn", s.Lang)
	})

	t.Run("foreign referer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/language/ta", nil)
		req.Header.Set("Referer", "https://evil.test/phish")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("invalid code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/language/not-a-language", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTranslate(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "टमाटर"})
	}))
	defer backend.Close()

	router, sessions := setup(t, backend.URL)
	value, err := sessions.Encode(auth.Session{Lang: "hi"})
	require.NoError(t, err)

	post := func(cookie *http.Cookie) map[string]string {
		req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(`{"text":"Tomatoes"}`))
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	body := post(&http.Cookie{Name: auth.CookieName, Value: value})
	assert.Equal(t, "टमाटर", body["text"])
	assert.Equal(t, "translated", body["outcome"])
	assert.Equal(t, "hi", body["lang"])

	body = post(nil)
	assert.Equal(t, "Tomatoes", body["text"])
	assert.Equal(t, "en", body["lang"])
}
