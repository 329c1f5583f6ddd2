package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nexusfarm/nexus/internal/auth"
	"github.com/nexusfarm/nexus/internal/config"
	"github.com/nexusfarm/nexus/internal/di"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *di.Container) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:       dir,
		Port:          0,
		DevMode:       true,
		UploadDir:     filepath.Join(dir, "uploads"),
		SessionSecret: "0123456789abcdef",
		SessionTTL:    time.Hour,
		Forecast: config.ForecastConfig{
			DataPath: filepath.Join(dir, "missing.csv"),
			Model:    config.ModelForest,
			Trees:    5,
		},
		Translate:             config.TranslateConfig{DefaultLanguage: "en"},
		Backup:                &config.BackupConfig{},
		ActivityRetentionDays: 90,
		ActivityPruneSchedule: "0 30 3 * * *",
	}

	container, _, err := di.Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	srv := New(Config{Log: zerolog.Nop(), Config: cfg, Container: container})
	srv.systemHandlers.cpuPercent = func() (float64, error) { return 12.5, nil }
	srv.systemHandlers.memPercent = func() (float64, error) { return 40, nil }
	srv.systemHandlers.diskUsage = func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Total: 10 << 30, Free: 4 << 30, UsedPercent: 60}, nil
	}
	return srv, container
}

func do(t *testing.T, srv *Server, method, path string, s *auth.Session) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if s != nil {
		value, err := srv.container.Sessions.Encode(*s)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

var admin = &auth.Session{UserID: 1, Username: "root", Role: "admin"}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "nexus", body["service"])
	assert.Equal(t, "untrained", body["forecast"])
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/admin/system", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/admin/jobs", &auth.Session{UserID: 2, Username: "ravi", Role: "farmer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSystemStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/admin/system", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12.5, body.CPUPercent)
	assert.Equal(t, 40.0, body.RAMPercent)
	require.NotNil(t, body.Disk)
	assert.Equal(t, 60.0, body.Disk.UsedPercent)
	assert.InDelta(t, 4096, body.Disk.FreeMB, 1e-9)
	assert.Positive(t, body.Goroutines)
}

func TestHandleSystemStatus_ProbeFailuresDegrade(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.systemHandlers.cpuPercent = func() (float64, error) { return 0, errors.New("no /proc") }
	srv.systemHandlers.diskUsage = func(string) (*disk.UsageStat, error) { return nil, errors.New("no disk") }

	rec := do(t, srv, http.MethodGet, "/api/admin/system", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.CPUPercent)
	assert.Nil(t, body.Disk)
}

func TestHandleDatabaseStats(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/admin/system/database", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"nexus"`)
	assert.Contains(t, rec.Body.String(), "page_size")
}

func TestJobs(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/admin/jobs", admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var body JobsStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Count)
	names := []string{body.Jobs[0].Name, body.Jobs[1].Name, body.Jobs[2].Name}
	assert.Equal(t, []string{"activity_prune", "client_data_cleanup", "database_maintenance"}, names)

	rec = do(t, srv, http.MethodPost, "/api/admin/jobs/activity_prune/run", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = do(t, srv, http.MethodPost, "/api/admin/jobs/nope/run", admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStream(t *testing.T) {
	srv, container := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	value, err := container.Sessions.Encode(*admin)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/admin/events/stream?types=order_placed", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}

	assert.Contains(t, next(), `"connected"`)

	container.EventBus.Emit(events.UserRegistered, "users", map[string]interface{}{"user_id": 1})
	container.EventBus.Emit(events.OrderPlaced, "orders", map[string]interface{}{"order_id": 7})

	msg := next()
	assert.Contains(t, msg, `"ORDER_PLACED"`)
	assert.Contains(t, msg, `"order_id":7`)
}

func TestTypesFilter(t *testing.T) {
	assert.Nil(t, typesFilter(" "))

	f := typesFilter("order_placed, BACKUP_COMPLETED")
	assert.True(t, f(events.Event{Type: events.OrderPlaced}))
	assert.True(t, f(events.Event{Type: events.BackupCompleted}))
	assert.False(t, f(events.Event{Type: events.UserRegistered}))
}

func TestUnlessStream(t *testing.T) {
	wrapped := 0
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped++
			next.ServeHTTP(w, r)
		})
	}
	h := unlessStream(mw)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/stream", nil))
	assert.Equal(t, 0, wrapped)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, 1, wrapped)
}
