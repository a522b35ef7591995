package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/qapath-server/internal/logger"
)

const healthTimeout = 2 * time.Second

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// Health reports process and database health.
type Health struct {
	db      Pinger
	version string
	logger  *logger.Logger
}

func NewHealth(db Pinger, version string, logger *logger.Logger) *Health {
	return &Health{db: db, version: version, logger: logger}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Version: h.version}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.LogWarn("Health handler: database ping failed", err)
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
