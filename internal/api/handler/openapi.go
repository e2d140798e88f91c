package handler

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
)

// OpenAPIHandler serves the OpenAPI document as JSON.
type OpenAPIHandler struct {
	rawYAML  []byte
	logger   *zap.Logger
	jsonOnce sync.Once
	jsonSpec []byte
	jsonErr  error
}

// NewOpenAPIHandler creates a handler that converts the YAML document to JSON on first request.
func NewOpenAPIHandler(yamlDoc []byte, logger *zap.Logger) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlDoc, logger: logger}
}

func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.jsonOnce.Do(func() {
		h.jsonSpec, h.jsonErr = yaml.YAMLToJSON(h.rawYAML)
	})

	if h.jsonErr != nil {
		h.logger.Error("failed to convert OpenAPI document to JSON", zap.Error(h.jsonErr))
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI document", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		h.logger.Warn("failed to write OpenAPI response", zap.Error(err))
	}
}
