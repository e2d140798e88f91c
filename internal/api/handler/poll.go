package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/api/response"
	"github.com/acarlson90/polls/internal/api/validation"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/poll"
)

// PollService is the poll read and create surface used by the handlers.
type PollService interface {
	CreatePoll(ctx context.Context, creator *auth.Identity, np poll.NewPoll, now time.Time) (*poll.PollResponse, error)
	GetPoll(ctx context.Context, pollID int64, requester *auth.Identity, now time.Time) (*poll.PollResponse, error)
	ListPolls(ctx context.Context, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	ListPollsCreatedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	ListPollsVotedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	GetUserProfile(ctx context.Context, username string) (*poll.UserProfile, error)
}

// VoteCaster records votes.
type VoteCaster interface {
	CastVote(ctx context.Context, identity *auth.Identity, pollID, choiceID int64, now time.Time) (*poll.PollResponse, error)
}

type choiceRequest struct {
	Text string `json:"text"`
}

type pollLengthRequest struct {
	Days  *int `json:"days"`
	Hours *int `json:"hours"`
}

type createPollRequest struct {
	Question   string            `json:"question"`
	Choices    []choiceRequest   `json:"choices"`
	PollLength pollLengthRequest `json:"pollLength"`
}

type voteRequest struct {
	ChoiceID *int64 `json:"choiceId"`
}

// PollHandler handles poll and vote endpoints.
type PollHandler struct {
	polls  PollService
	votes  VoteCaster
	now    func() time.Time
	logger *zap.Logger
}

// NewPollHandler creates a new PollHandler. now is read once per request.
func NewPollHandler(polls PollService, votes VoteCaster, now func() time.Time, logger *zap.Logger) *PollHandler {
	if now == nil {
		now = time.Now
	}
	return &PollHandler{polls: polls, votes: votes, now: now, logger: logger}
}

// Create handles POST /api/polls.
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	vreq := validation.CreatePollRequest{
		Question: req.Question,
		Days:     req.PollLength.Days,
		Hours:    req.PollLength.Hours,
	}
	for _, c := range req.Choices {
		vreq.Choices = append(vreq.Choices, c.Text)
	}
	if fieldErrors := validation.ValidateCreatePollRequest(vreq); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	np := poll.NewPoll{Question: strings.TrimSpace(req.Question), Duration: vreq.Duration()}
	for _, text := range vreq.Choices {
		np.Choices = append(np.Choices, strings.TrimSpace(text))
	}

	created, err := h.polls.CreatePoll(r.Context(), middleware.GetIdentity(r.Context()), np, h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to create poll", requestID)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/polls/%d", created.ID))
	response.Success(w, http.StatusCreated, created, requestID)
}

// List handles GET /api/polls.
func (h *PollHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pg, ok := parsePage(w, r, requestID)
	if !ok {
		return
	}

	page, err := h.polls.ListPolls(r.Context(), middleware.GetIdentity(r.Context()), pg.Page, pg.Limit, h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to list polls", requestID)
		return
	}

	writePage(w, page, requestID)
}

// Get handles GET /api/polls/{pollId}.
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pollID, ok := parseID(chi.URLParam(r, "pollId"))
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "pollId must be a positive integer", requestID)
		return
	}

	p, err := h.polls.GetPoll(r.Context(), pollID, middleware.GetIdentity(r.Context()), h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to get poll", requestID)
		return
	}

	response.Success(w, http.StatusOK, p, requestID)
}

// CastVote handles POST /api/polls/{pollId}/votes.
func (h *PollHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	pollID, ok := parseID(chi.URLParam(r, "pollId"))
	if !ok {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "pollId must be a positive integer", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	if fieldErrors := validation.ValidateCastVoteRequest(validation.CastVoteRequest{ChoiceID: req.ChoiceID}); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	p, err := h.votes.CastVote(r.Context(), middleware.GetIdentity(r.Context()), pollID, *req.ChoiceID, h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to cast vote", requestID)
		return
	}

	response.Success(w, http.StatusOK, p, requestID)
}

func parsePage(w http.ResponseWriter, r *http.Request, requestID string) (validation.Page, bool) {
	q := r.URL.Query()
	pg, fieldErrors := validation.ParsePage(q.Get("page"), q.Get("limit"), poll.DefaultPageSize, poll.MaxPageSize)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "INVALID_PARAM", "Invalid pagination parameters", fieldErrors, requestID)
		return pg, false
	}
	return pg, true
}

func writePage(w http.ResponseWriter, page *poll.Page, requestID string) {
	items := page.Polls
	if items == nil {
		items = []poll.PollResponse{}
	}
	response.SuccessList(w, http.StatusOK, items, page.Total, page.Page, page.Limit, requestID)
}
