// Package auth issues and verifies signed session cookies and guards routes by role.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// CookieName is the session cookie
const CookieName = "nexus_session"

var (
	// ErrInvalidSession covers tampered, truncated or undecodable cookies.
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession is returned for well-formed sessions past their TTL.
	ErrExpiredSession = errors.New("session expired")
)

// Session is the state carried in the cookie
type Session struct {
	UserID   int64       `msgpack:"uid" json:"user_id"`
	Username string      `msgpack:"usr" json:"username"`
	Role     domain.Role `msgpack:"rol" json:"role"`
	Lang     string      `msgpack:"lng" json:"lang"`
	IssuedAt int64       `msgpack:"iat" json:"issued_at"`
	Nonce    string      `msgpack:"non" json:"-"`
}

// Authenticated reports whether the session belongs to a logged-in user
func (s Session) Authenticated() bool {
	return s.UserID > 0
}

// msgpackSerializer plugs msgpack into securecookie.
type msgpackSerializer struct{}

func (msgpackSerializer) Serialize(src interface{}) ([]byte, error) {
	return msgpack.Marshal(src)
}

func (msgpackSerializer) Deserialize(src []byte, dst interface{}) error {
	return msgpack.Unmarshal(src, dst)
}

// Sessions is the cookie codec. securecookie signs and max-age checks the
// value; IssuedAt bounds the session from login, so re-issuing a cookie
// (e.g. on a language change) does not extend it.
type Sessions struct {
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions creates a session codec. secure sets the cookie Secure flag.
func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(ttl.Seconds()))
	codec.SetSerializer(msgpackSerializer{})
	return &Sessions{codec: codec, ttl: ttl, secure: secure, now: time.Now}
}

// Encode signs s. IssuedAt and Nonce are filled in when empty.
func (m *Sessions) Encode(s Session) (string, error) {
	if s.IssuedAt == 0 {
		s.IssuedAt = m.now().Unix()
	}
	if s.Nonce == "" {
		s.Nonce = uuid.NewString()
	}

	value, err := m.codec.Encode(CookieName, &s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return value, nil
}

// Decode verifies and decodes a cookie value
func (m *Sessions) Decode(value string) (Session, error) {
	var s Session
	if err := m.codec.Decode(CookieName, value, &s); err != nil {
		return Session{}, ErrInvalidSession
	}
	if m.now().Sub(time.Unix(s.IssuedAt, 0)) > m.ttl {
		return Session{}, ErrExpiredSession
	}
	return s, nil
}

// Issue writes s as the session cookie
func (m *Sessions) Issue(w http.ResponseWriter, s Session) error {
	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (m *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
