package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/modules/activity"
	"github.com/nexusfarm/nexus/internal/modules/dashboard"
	"github.com/nexusfarm/nexus/internal/modules/forecasting"
	"github.com/nexusfarm/nexus/internal/modules/orders"
	"github.com/nexusfarm/nexus/internal/modules/products"
	"github.com/nexusfarm/nexus/internal/modules/users"
	testingpkg "github.com/nexusfarm/nexus/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (http.Handler, *auth.Sessions, int64, int64) {
	t.Helper()
	db := testingpkg.NewTestDB(t)
	log := zerolog.Nop()

	acts := activity.NewRepository(db.X(), log)
	images, err := products.NewImageStore(t.TempDir())
	require.NoError(t, err)
	svc := dashboard.NewService(
		users.NewService(users.NewRepository(db.X(), log), acts, nil, log),
		products.NewService(products.NewRepository(db.X(), log), images, acts, nil, log),
		orders.NewService(orders.NewRepository(db.X(), log), acts, nil, log),
		acts,
		forecasting.NewService(nil),
		log,
	)

	farmer := testingpkg.InsertUser(t, db, "ravi", "9000000001", "farmer")
	consumer := testingpkg.InsertUser(t, db, "meera", "9000000002", "consumer")
	testingpkg.InsertProduct(t, db, farmer, "Tomatoes", 20, 100)

	sessions := auth.NewSessions("0123456789abcdef0123456789abcdef", time.Hour, false)
	mw := auth.NewMiddleware(sessions, log)
	r := chi.NewRouter()
	r.Use(mw.Load)
	NewHandler(svc, mw, log).RegisterRoutes(r)
	return r, sessions, farmer, consumer
}

func get(t *testing.T, router http.Handler, sessions *auth.Sessions, path string, s *auth.Session) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if s != nil {
		value, err := sessions.Encode(*s)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleDashboard_DispatchesOnRole(t *testing.T) {
	router, sessions, farmer, consumer := setup(t)

	rec := get(t, router, sessions, "/dashboard", &auth.Session{UserID: farmer, Username: "ravi", Role: "farmer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Role string                 `json:"role"`
		View map[string]interface{} `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "farmer", body.Role)
	assert.Contains(t, body.View, "sales")
	assert.Contains(t, body.View, "ml_forecasts")
	assert.Contains(t, body.View, "current_day")

	rec = get(t, router, sessions, "/dashboard?q=tom", &auth.Session{UserID: consumer, Username: "meera", Role: "consumer"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tom", body.View["query"])
	assert.Len(t, body.View["products"], 1)

	rec = get(t, router, sessions, "/dashboard", &auth.Session{UserID: 99, Username: "root", Role: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.View, "totals")

	assert.Equal(t, http.StatusUnauthorized, get(t, router, sessions, "/dashboard", nil).Code)
}

func TestHandleAdmin(t *testing.T) {
	router, sessions, farmer, _ := setup(t)

	rec := get(t, router, sessions, "/admin/dashboard", &auth.Session{UserID: 99, Username: "root", Role: "admin"})
	require.Equal(t, http.StatusOK, rec.Code)

	var view dashboard.AdminView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Users, 2)
	assert.Equal(t, int64(100), view.Totals.Inventory)
	assert.Equal(t, "0.00", view.Totals.Revenue)

	rec = get(t, router, sessions, "/admin/dashboard", &auth.Session{UserID: farmer, Username: "ravi", Role: "farmer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
