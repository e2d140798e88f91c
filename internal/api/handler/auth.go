package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/api/validation"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/token"
)

// SignInService authenticates a user and issues a token.
type SignInService interface {
	SignIn(ctx context.Context, usernameOrEmail, password string, now time.Time) (token.Issued, *auth.Identity, error)
}

type signInRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type signInResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	service SignInService
	now     func() time.Time
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service SignInService, now func() time.Time, logger *zap.Logger) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{service: service, now: now, logger: logger}
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSignInRequest(validation.SignInRequest{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	issued, identity, err := h.service.SignIn(r.Context(), req.UsernameOrEmail, req.Password, h.now())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid username, email or password", requestID)
			return
		}
		writeError(w, h.logger, err, "failed to sign in", requestID)
		return
	}

	h.logger.Info("user signed in", zap.Int64("user_id", identity.ID), zap.String("request_id", requestID))
	response.Success(w, http.StatusOK, signInResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
	}, requestID)
}
