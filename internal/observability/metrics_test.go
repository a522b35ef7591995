package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qapath-server/internal/model"
)

func TestMetrics_AuthEvent(t *testing.T) {
	m := NewMetrics()

	m.AuthEvent(model.EventLogin, model.OutcomeFailure)
	m.AuthEvent(model.EventLogin, model.OutcomeFailure)
	m.AuthEvent(model.EventLogin, model.OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues(model.EventLogin, model.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues(model.EventLogin, model.OutcomeSuccess)))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest(http.MethodGet, "GET /api/auth/me", http.StatusUnauthorized, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "GET /api/auth/me", "401")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.AuthEvent(model.EventRegister, model.OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `qapath_auth_events_total{event="register",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
