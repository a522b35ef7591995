package router

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/dtroode/qapath-server/internal/api/http/handler"
	"github.com/dtroode/qapath-server/internal/api/http/middleware"
	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// Services are the application services the routes dispatch to.
type Services struct {
	Auth     handler.AuthService
	Profile  handler.ProfileService
	Progress handler.ProgressService
	Database handler.Pinger
}

// Options toggle optional routes and cross-origin access.
type Options struct {
	AllowedOrigins          []string
	ExternalIdentityEnabled bool
	Version                 string
	// Metrics exposes /metrics and instruments requests when set.
	Metrics MetricsExporter
}

// MetricsExporter observes requests and serves the scrape endpoint.
type MetricsExporter interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// Router builds the HTTP handler tree of the API.
type Router struct {
	services       Services
	options        Options
	transport      *session.Transport
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	services Services,
	options Options,
	transport *session.Transport,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		options:        options,
		transport:      transport,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register mounts all routes and wraps them with the middleware chain.
func (r *Router) Register() http.Handler {
	mux := http.NewServeMux()
	authenticate := middleware.NewAuthenticate(r.services.Auth, r.transport, r.contextManager, r.logger)

	r.registerAuthRoutes(mux, authenticate)
	r.registerUserRoutes(mux, authenticate)
	r.registerProgressRoutes(mux, authenticate)

	health := handler.NewHealth(r.services.Database, r.options.Version, r.logger)
	mux.HandleFunc("GET /health", health.Check)
	if r.options.Metrics != nil {
		mux.Handle("GET /metrics", r.options.Metrics.Handler())
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   r.options.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	var h http.Handler = c.Handler(mux)
	h = middleware.SecurityHeaders(h)
	h = middleware.NewLogging(r.logger).Handle(h)
	if r.options.Metrics != nil {
		h = middleware.NewMetrics(r.options.Metrics).Handle(h)
	}
	return h
}

func (r *Router) registerAuthRoutes(mux *http.ServeMux, authenticate *middleware.Authenticate) {
	h := handler.NewAuth(r.services.Auth, r.transport, r.contextManager, r.logger)

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	if r.options.ExternalIdentityEnabled {
		mux.HandleFunc("POST /api/auth/google", h.LoginExternal)
	}
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
	mux.Handle("GET /api/auth/me", authenticate.HandleFunc(h.Me))
	mux.Handle("GET /api/auth/verify", authenticate.HandleFunc(h.Verify))
}

func (r *Router) registerUserRoutes(mux *http.ServeMux, authenticate *middleware.Authenticate) {
	h := handler.NewUser(r.services.Profile, r.services.Progress, r.transport, r.contextManager, r.logger)

	mux.Handle("GET /api/users/me", authenticate.HandleFunc(h.GetMe))
	mux.Handle("PUT /api/users/me", authenticate.HandleFunc(h.UpdateMe))
	mux.Handle("DELETE /api/users/me", authenticate.HandleFunc(h.DeleteMe))
	mux.Handle("PUT /api/users/me/settings", authenticate.HandleFunc(h.UpdateSettings))
	mux.Handle("GET /api/users/stats", authenticate.HandleFunc(h.Stats))
	mux.Handle("PUT /api/users/me/avatar", authenticate.HandleFunc(h.UploadAvatar))
	mux.Handle("GET /api/users/me/avatar", authenticate.HandleFunc(h.DownloadAvatar))
}

func (r *Router) registerProgressRoutes(mux *http.ServeMux, authenticate *middleware.Authenticate) {
	h := handler.NewProgress(r.services.Progress, r.contextManager, r.logger)

	mux.Handle("GET /api/progress", authenticate.HandleFunc(h.Get))
	mux.Handle("DELETE /api/progress", authenticate.HandleFunc(h.Reset))
	mux.Handle("PUT /api/progress/module", authenticate.HandleFunc(h.SetModule))
	mux.Handle("PUT /api/progress/subtask", authenticate.HandleFunc(h.SetSubtask))
	mux.Handle("PUT /api/progress/note", authenticate.HandleFunc(h.SetNote))
	mux.Handle("POST /api/progress/badge", authenticate.HandleFunc(h.AddBadge))
	mux.Handle("POST /api/progress/xp", authenticate.HandleFunc(h.AddXP))
	mux.Handle("POST /api/progress/sync", authenticate.HandleFunc(h.Sync))
	mux.Handle("GET /api/progress/stats", authenticate.HandleFunc(h.Stats))
}
