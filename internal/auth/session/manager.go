package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fyxed/internal/config"
)

const DefaultCookieName = "fyxed_token"

// Source tells where a request's access token came from.
type Source string

const (
	SourceNone   Source = ""
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
)

// Manager carries access tokens in an http-only cookie for browser clients.
// API clients send the same token as a bearer header.
type Manager struct {
	cookieName string
	domain     string
	secure     bool
	now        func() time.Time
}

func NewManager(cfg config.Config) *Manager {
	name := cfg.AuthCookieName
	if name == "" {
		name = DefaultCookieName
	}
	secure := cfg.IsProduction()
	if cfg.AuthCookieSecure != nil {
		secure = *cfg.AuthCookieSecure || cfg.IsProduction()
	}
	return &Manager{
		cookieName: name,
		domain:     cfg.AuthCookieDomain,
		secure:     secure,
		now:        time.Now,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// ReadToken returns the bearer token when an Authorization header is present,
// even a malformed one, and only falls back to the cookie without it.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, source := m.Token(c.Request)
	return token, source != SourceNone
}

func (m *Manager) Token(r *http.Request) (string, Source) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", SourceNone
		}
		return token, SourceHeader
	}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", SourceNone
	}
	if token := strings.TrimSpace(cookie.Value); token != "" {
		return token, SourceCookie
	}
	return "", SourceNone
}

func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(m.now()).Seconds())
	if maxAge <= 0 {
		// zero would make a session cookie that outlives the token
		maxAge = -1
	}
	m.write(c, value, maxAge)
}

func (m *Manager) Clear(c *gin.Context) {
	m.write(c, "", -1)
}

func (m *Manager) write(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", m.domain, m.secure, true)
}
