package handler

import (
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// WriteError maps err to a status and writes the JSON error body. Server
// errors are logged with full detail and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *logger.Logger) {
	status, detail := classifyError(err)

	if status >= http.StatusInternalServerError {
		logger.LogError("HTTP handler: request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status)
	} else {
		logger.Debug("HTTP handler: request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err.Error())
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorResponse{Success: false, Detail: detail})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrWeakPassword),
		errors.Is(err, model.ErrDuplicateEmail):
		return http.StatusBadRequest, oops.GetPublic(err, "invalid request")
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, oops.GetPublic(err, "invalid email or password")
	case errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, model.ErrAccountInactive):
		return http.StatusForbidden, "account is inactive"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, oops.GetPublic(err, "not found")
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests, oops.GetPublic(err, "too many attempts, try again later")
	case errors.Is(err, model.ErrFeatureDisabled):
		return http.StatusServiceUnavailable, oops.GetPublic(err, "feature is not available")
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
