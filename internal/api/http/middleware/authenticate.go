package middleware

import (
	"context"
	"net/http"

	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/api/http/handler"
	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// Authenticator resolves the active user behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.User, error)
}

// Authenticate validates the session token and injects the user into the
// request context.
type Authenticate struct {
	authenticator  Authenticator
	transport      *session.Transport
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, transport *session.Transport, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		authenticator:  authenticator,
		transport:      transport,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Handle rejects requests without a valid token with 401.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, source := m.transport.Extract(r)
		if source == session.SourceNone {
			handler.WriteError(w, r, oops.Code("TOKEN_MISSING").Wrap(model.ErrInvalidToken), m.logger)
			return
		}

		user, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			handler.WriteError(w, r, err, m.logger)
			return
		}

		ctx := m.contextManager.SetUserToContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleFunc is Handle for plain handler functions.
func (m *Authenticate) HandleFunc(next http.HandlerFunc) http.Handler {
	return m.Handle(next)
}
