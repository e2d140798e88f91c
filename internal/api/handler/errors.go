package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/database"
	"github.com/acarlson90/polls/internal/poll"
)

// retryAfterSeconds is sent with 503 responses.
const retryAfterSeconds = 5

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// writeError maps a domain error onto the response envelope. Errors that are
// not part of the domain are logged and reported as 500 or 503.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, msg string, requestID string) {
	switch {
	case errors.Is(err, poll.ErrPollNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Poll not found", requestID)
	case errors.Is(err, auth.ErrUserNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "User not found", requestID)
	case errors.Is(err, poll.ErrInvalidChoice):
		response.Err(w, http.StatusBadRequest, "INVALID_CHOICE", "Choice does not belong to this poll", requestID)
	case errors.Is(err, poll.ErrPollExpired):
		response.Err(w, http.StatusUnprocessableEntity, "POLL_EXPIRED", "Poll has already expired", requestID)
	case errors.Is(err, poll.ErrAlreadyVoted):
		response.Err(w, http.StatusConflict, "ALREADY_VOTED", "You have already voted on this poll", requestID)
	case errors.Is(err, poll.ErrIdentityRequired):
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required", requestID)
	case database.IsUnavailable(err):
		logger.Warn(msg, zap.Error(err), zap.String("request_id", requestID))
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		response.Err(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable, retry later", requestID)
	default:
		logger.Error(msg, zap.Error(err), zap.String("request_id", requestID))
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", requestID)
	}
}

// parseID reads a positive int64 path parameter.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
