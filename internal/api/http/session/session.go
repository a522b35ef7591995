// Package session carries tokens between the server and clients over two
// channels: HttpOnly cookies for browsers and the Authorization header for
// everything else. Cookies win when both are present.
package session

import (
	"net/http"
	"strings"
)

// RefreshPath scopes the refresh cookie to the refresh endpoint.
const RefreshPath = "/api/auth/refresh"

// Source tells where a token was found.
type Source string

const (
	SourceNone   Source = ""
	SourceCookie Source = "cookie"
	SourceBearer Source = "bearer"
)

// Config holds cookie attributes.
type Config struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	HTTPOnly bool
	MaxAge   int
}

type Transport struct {
	config Config
}

func New(cfg Config) *Transport {
	return &Transport{config: cfg}
}

// RefreshCookieName is the name of the refresh token cookie.
func (t *Transport) RefreshCookieName() string {
	return t.config.Name + "_refresh"
}

// Extract returns the access token of r, looking at the session cookie
// first and the bearer header second.
func (t *Transport) Extract(r *http.Request) (string, Source) {
	if c, err := r.Cookie(t.config.Name); err == nil && c.Value != "" {
		return c.Value, SourceCookie
	}
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, SourceBearer
	}
	return "", SourceNone
}

// ExtractRefresh returns the refresh token from the refresh cookie, falling
// back to the token sent in the request body.
func (t *Transport) ExtractRefresh(r *http.Request, bodyToken string) (string, Source) {
	if c, err := r.Cookie(t.RefreshCookieName()); err == nil && c.Value != "" {
		return c.Value, SourceCookie
	}
	if bodyToken = strings.TrimSpace(bodyToken); bodyToken != "" {
		return bodyToken, SourceBearer
	}
	return "", SourceNone
}

// SetSession sets both the session and the refresh cookie.
func (t *Transport) SetSession(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, t.cookie(t.config.Name, "/", access, t.config.MaxAge))
	http.SetCookie(w, t.cookie(t.RefreshCookieName(), RefreshPath, refresh, t.config.MaxAge))
}

// SetAccess replaces only the session cookie.
func (t *Transport) SetAccess(w http.ResponseWriter, access string) {
	http.SetCookie(w, t.cookie(t.config.Name, "/", access, t.config.MaxAge))
}

// Clear expires both cookies. Attributes match the ones used when setting
// them, otherwise browsers keep the originals.
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, t.cookie(t.config.Name, "/", "", -1))
	http.SetCookie(w, t.cookie(t.RefreshCookieName(), RefreshPath, "", -1))
}

func (t *Transport) cookie(name, path, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   t.config.Domain,
		MaxAge:   maxAge,
		Secure:   t.config.Secure,
		HttpOnly: t.config.HTTPOnly,
		SameSite: t.config.SameSite,
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
