package middleware

import (
	"net/http"
	"time"
)

const unmatchedRoute = "unmatched"

// RequestObserver records request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Metrics reports each request to a RequestObserver, labelled by the
// matched route pattern so path parameters do not explode cardinality.
type Metrics struct {
	observer RequestObserver
}

func NewMetrics(observer RequestObserver) *Metrics {
	return &Metrics{observer: observer}
}

func (m *Metrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		// ServeMux sets Pattern on the request it was given.
		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		m.observer.ObserveRequest(r.Method, route, rec.code(), time.Since(start))
	})
}
