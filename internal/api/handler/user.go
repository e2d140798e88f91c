package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/auth"
)

type identityResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func toIdentityResponse(i *auth.Identity) identityResponse {
	roles := make([]string, 0, len(i.Roles))
	for _, r := range i.Roles {
		roles = append(roles, string(r))
	}
	return identityResponse{
		ID:       i.ID,
		Username: i.Username,
		Name:     i.Name,
		Email:    i.Email,
		Roles:    roles,
	}
}

// UserHandler handles user profile and per-user poll listing endpoints.
type UserHandler struct {
	polls  PollService
	now    func() time.Time
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(polls PollService, now func() time.Time, logger *zap.Logger) *UserHandler {
	if now == nil {
		now = time.Now
	}
	return &UserHandler{polls: polls, now: now, logger: logger}
}

// Me handles GET /api/user/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required", requestID)
		return
	}

	response.Success(w, http.StatusOK, toIdentityResponse(identity), requestID)
}

// Profile handles GET /api/users/{username}.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	profile, err := h.polls.GetUserProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, h.logger, err, "failed to get user profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, profile, requestID)
}

// Polls handles GET /api/users/{username}/polls.
func (h *UserHandler) Polls(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pg, ok := parsePage(w, r, requestID)
	if !ok {
		return
	}

	page, err := h.polls.ListPollsCreatedBy(r.Context(), chi.URLParam(r, "username"), middleware.GetIdentity(r.Context()), pg.Page, pg.Limit, h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to list polls created by user", requestID)
		return
	}

	writePage(w, page, requestID)
}

// Votes handles GET /api/users/{username}/votes.
func (h *UserHandler) Votes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pg, ok := parsePage(w, r, requestID)
	if !ok {
		return
	}

	page, err := h.polls.ListPollsVotedBy(r.Context(), chi.URLParam(r, "username"), middleware.GetIdentity(r.Context()), pg.Page, pg.Limit, h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to list polls voted by user", requestID)
		return
	}

	writePage(w, page, requestID)
}
