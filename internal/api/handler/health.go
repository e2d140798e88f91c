package handler

import (
	"context"
	"net/http"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      DBPinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Database databaseStatus `json:"database"`
}

// ServeHTTP handles the health check request. A failed ping reports
// degraded but still answers 200 so that the endpoint stays a liveness probe.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !connected {
		status = "degraded"
	}

	response.Success(w, http.StatusOK, healthData{
		Status:   status,
		Version:  h.version,
		Database: databaseStatus{Connected: connected},
	}, requestID)
}
