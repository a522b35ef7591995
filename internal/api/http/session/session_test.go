package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransport() *Transport {
	return New(Config{
		Name:     "qa_session",
		SameSite: http.SameSiteLaxMode,
		HTTPOnly: true,
		MaxAge:   604800,
	})
}

func TestTransport_Extract(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		setCookie  bool
		header     string
		wantToken  string
		wantSource Source
	}{
		{name: "nothing"},
		{name: "cookie only", cookie: "c-token", wantToken: "c-token", wantSource: SourceCookie},
		{name: "bearer only", header: "Bearer b-token", wantToken: "b-token", wantSource: SourceBearer},
		{name: "cookie wins over bearer", cookie: "c-token", header: "Bearer b-token", wantToken: "c-token", wantSource: SourceCookie},
		{name: "scheme is case insensitive", header: "bEaReR b-token", wantToken: "b-token", wantSource: SourceBearer},
		{name: "empty cookie falls back to bearer", setCookie: true, header: "Bearer b-token", wantToken: "b-token", wantSource: SourceBearer},
		{name: "basic scheme ignored", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
		{name: "bare token without scheme", header: "b-token"},
	}

	tr := testTransport()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.cookie != "" || tt.setCookie {
				r.AddCookie(&http.Cookie{Name: "qa_session", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, source := tr.Extract(r)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestTransport_ExtractRefresh(t *testing.T) {
	tr := testTransport()

	r := httptest.NewRequest(http.MethodPost, RefreshPath, nil)
	r.AddCookie(&http.Cookie{Name: "qa_session_refresh", Value: "from-cookie"})
	token, source := tr.ExtractRefresh(r, "from-body")
	assert.Equal(t, "from-cookie", token)
	assert.Equal(t, SourceCookie, source)

	r = httptest.NewRequest(http.MethodPost, RefreshPath, nil)
	token, source = tr.ExtractRefresh(r, " from-body ")
	assert.Equal(t, "from-body", token)
	assert.Equal(t, SourceBearer, source)

	token, source = tr.ExtractRefresh(r, "")
	assert.Empty(t, token)
	assert.Equal(t, SourceNone, source)
}

func TestTransport_SetSession(t *testing.T) {
	tr := New(Config{
		Name:     "qa_session",
		Domain:   "example.com",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		HTTPOnly: true,
		MaxAge:   3600,
	})

	rec := httptest.NewRecorder()
	tr.SetSession(rec, "access", "refresh")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	assert.Equal(t, "qa_session", cookies[0].Name)
	assert.Equal(t, "access", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, "qa_session_refresh", cookies[1].Name)
	assert.Equal(t, "refresh", cookies[1].Value)
	assert.Equal(t, RefreshPath, cookies[1].Path)

	for _, c := range cookies {
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.Equal(t, 3600, c.MaxAge)
		assert.Equal(t, "example.com", c.Domain)
	}
}

func TestTransport_DomainUnsetByDefault(t *testing.T) {
	rec := httptest.NewRecorder()
	testTransport().SetAccess(rec, "access")

	header := rec.Header().Values("Set-Cookie")
	require.Len(t, header, 1)
	assert.NotContains(t, header[0], "Domain=")
	assert.NotContains(t, header[0], "Secure")
	assert.Contains(t, header[0], "HttpOnly")
	assert.Contains(t, header[0], "SameSite=Lax")
}

func TestTransport_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	testTransport().Clear(rec)

	header := rec.Header().Values("Set-Cookie")
	require.Len(t, header, 2)
	for _, h := range header {
		assert.Contains(t, h, "Max-Age=0")
		assert.True(t, strings.HasPrefix(h, "qa_session=;") || strings.HasPrefix(h, "qa_session_refresh=;"), h)
	}
	assert.Contains(t, header[1], "Path="+RefreshPath)
}
