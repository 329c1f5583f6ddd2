package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessions_EncodeDecode(t *testing.T) {
	m := NewSessions(testSecret, time.Hour, false)

	value, err := m.Encode(Session{UserID: 4, Username: "ravi", Role: domain.RoleFarmer, Lang: "bn"})
	require.NoError(t, err)

	s, err := m.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.UserID)
	assert.Equal(t, "ravi", s.Username)
	assert.Equal(t, domain.RoleFarmer, s.Role)
	assert.Equal(t, "bn", s.Lang)
	assert.NotEmpty(t, s.Nonce)
	assert.NotZero(t, s.IssuedAt)
}

func TestSessions_RejectsTampering(t *testing.T) {
	m := NewSessions(testSecret, time.Hour, false)
	value, err := m.Encode(Session{UserID: 1, Role: domain.RoleConsumer})
	require.NoError(t, err)

	other := NewSessions("another-secret-another-secret!!", time.Hour, false)
	_, err = other.Decode(value)
	assert.ErrorIs(t, err, ErrInvalidSession)

	for _, bad := range []string{"", "nodot", "!!!.???", value + "x", "AA." + value[len(value)-10:]} {
		_, err := m.Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidSession, bad)
	}
}

func TestSessions_SecureCookieFormat(t *testing.T) {
	m := NewSessions(testSecret, time.Hour, false)

	codec := securecookie.New([]byte(testSecret), nil)
	codec.SetSerializer(msgpackSerializer{})
	value, err := codec.Encode(CookieName, &Session{UserID: 9, Username: "mina", IssuedAt: time.Now().Unix()})
	require.NoError(t, err)

	s, err := m.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, "mina", s.Username)

	// bound to the cookie name
	other, err := codec.Encode("other_cookie", &Session{UserID: 9, IssuedAt: time.Now().Unix()})
	require.NoError(t, err)
	_, err = m.Decode(other)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// json payloads are not sessions
	jsonCodec := securecookie.New([]byte(testSecret), nil)
	jsonCodec.SetSerializer(securecookie.JSONEncoder{})
	asJSON, err := jsonCodec.Encode(CookieName, map[string]string{"uid": "9"})
	require.NoError(t, err)
	_, err = m.Decode(asJSON)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessions_Expiry(t *testing.T) {
	m := NewSessions(testSecret, time.Hour, false)
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	value, err := m.Encode(Session{UserID: 1})
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err = m.Decode(value)
	assert.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = m.Decode(value)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestMiddleware(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, false)
	mw := NewMiddleware(sessions, zerolog.Nop())

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(FromContext(r.Context()).Username))
	})
	farmersOnly := mw.Load(mw.RequireRole(domain.RoleFarmer)(ok))
	authed := mw.Load(mw.RequireAuth(ok))

	cookieFor := func(s Session) *http.Cookie {
		value, err := sessions.Encode(s)
		require.NoError(t, err)
		return &http.Cookie{Name: CookieName, Value: value}
	}

	tests := []struct {
		name    string
		handler http.Handler
		cookie  *http.Cookie
		status  int
		body    string
	}{
		{"anonymous auth", authed, nil, http.StatusUnauthorized, ""},
		{"anonymous role", farmersOnly, nil, http.StatusUnauthorized, ""},
		{"garbage cookie", authed, &http.Cookie{Name: CookieName, Value: "junk"}, http.StatusUnauthorized, ""},
		{"consumer on farmer route", farmersOnly, cookieFor(Session{UserID: 2, Username: "mira", Role: domain.RoleConsumer}), http.StatusForbidden, ""},
		{"farmer on farmer route", farmersOnly, cookieFor(Session{UserID: 3, Username: "ravi", Role: domain.RoleFarmer}), http.StatusOK, "ravi"},
		{"consumer authed", authed, cookieFor(Session{UserID: 2, Username: "mira", Role: domain.RoleConsumer}), http.StatusOK, "mira"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestIssueAndClear(t *testing.T) {
	sessions := NewSessions(testSecret, time.Hour, true)

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Issue(rec, Session{UserID: 9}))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rec = httptest.NewRecorder()
	sessions.Clear(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
