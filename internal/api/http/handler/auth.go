package handler

import (
	"context"
	"net"
	"net/http"

	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

const tokenTypeBearer = "bearer"

// AuthService defines registration, login and token operations.
type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.Session, error)
	Login(ctx context.Context, params model.LoginParams) (model.Session, error)
	LoginExternal(ctx context.Context, identity model.ExternalIdentity) (model.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (model.User, error)
}

// Auth handles the /api/auth endpoints.
type Auth struct {
	authService    AuthService
	transport      *session.Transport
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, transport *session.Transport, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		transport:      transport,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates an email account and opens a session.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.authService.Register(r.Context(), model.RegisterParams{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.logger.Info("Auth handler: registration completed",
		"user_id", result.User.ID)

	h.writeSession(w, http.StatusCreated, "user registered successfully", result)
}

// Login opens a session for valid email credentials.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.authService.Login(r.Context(), model.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.writeSession(w, http.StatusOK, "login successful", result)
}

// LoginExternal opens a session for an identity verified upstream.
func (h *Auth) LoginExternal(w http.ResponseWriter, r *http.Request) {
	var req externalLoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.authService.LoginExternal(r.Context(), model.ExternalIdentity{
		GoogleID:      req.GoogleID,
		Email:         req.Email,
		DisplayName:   req.DisplayName,
		PhotoURL:      req.PhotoURL,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.writeSession(w, http.StatusOK, "login successful", result)
}

// Refresh issues a new access token from the refresh cookie or the
// refresh_token body field.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	refreshToken, source := h.transport.ExtractRefresh(r, req.RefreshToken)
	if source == session.SourceNone {
		WriteError(w, r, oops.Code("TOKEN_MISSING").Wrap(model.ErrInvalidToken), h.logger)
		return
	}

	access, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.transport.SetAccess(w, access)
	writeJSON(w, http.StatusOK, refreshResponse{
		Success:     true,
		AccessToken: access,
		TokenType:   tokenTypeBearer,
	})
}

// Logout clears the session cookies. Tokens stay valid until they expire.
func (h *Auth) Logout(w http.ResponseWriter, _ *http.Request) {
	h.transport.Clear(w)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "logged out successfully"})
}

// Me returns the authenticated user.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrInvalidToken, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{Success: true, User: user.Public()})
}

// Verify confirms that the presented token is valid.
func (h *Auth) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrInvalidToken, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Valid:   true,
		UserID:  user.ID.String(),
		Email:   user.Email,
	})
}

// Status reports whether the request carries a valid session. It never
// answers 401.
func (h *Auth) Status(w http.ResponseWriter, r *http.Request) {
	token, source := h.transport.Extract(r)
	if source == session.SourceNone {
		writeJSON(w, http.StatusOK, statusResponse{Success: true})
		return
	}

	user, err := h.authService.Authenticate(r.Context(), token)
	if err != nil {
		h.logger.Debug("Auth handler: status check without valid session",
			"source", source,
			"error", err.Error())
		writeJSON(w, http.StatusOK, statusResponse{Success: true})
		return
	}

	public := user.Public()
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Authenticated: true, User: &public})
}

func (h *Auth) writeSession(w http.ResponseWriter, status int, message string, result model.Session) {
	h.transport.SetSession(w, result.AccessToken, result.RefreshToken)
	writeJSON(w, status, sessionResponse{
		Success:      true,
		Message:      message,
		User:         result.User.Public(),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
