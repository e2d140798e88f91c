package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/acarlson90/polls/internal/api/middleware"
	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/poll"
	"github.com/acarlson90/polls/internal/token"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// --- Fakes ---

type fakePollService struct {
	createFn    func(ctx context.Context, creator *auth.Identity, np poll.NewPoll, now time.Time) (*poll.PollResponse, error)
	getFn       func(ctx context.Context, pollID int64, requester *auth.Identity, now time.Time) (*poll.PollResponse, error)
	listFn      func(ctx context.Context, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	createdByFn func(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	votedByFn   func(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error)
	profileFn   func(ctx context.Context, username string) (*poll.UserProfile, error)
}

func (f *fakePollService) CreatePoll(ctx context.Context, creator *auth.Identity, np poll.NewPoll, now time.Time) (*poll.PollResponse, error) {
	if f.createFn != nil {
		return f.createFn(ctx, creator, np, now)
	}
	return &poll.PollResponse{ID: 1, Question: np.Question}, nil
}

func (f *fakePollService) GetPoll(ctx context.Context, pollID int64, requester *auth.Identity, now time.Time) (*poll.PollResponse, error) {
	if f.getFn != nil {
		return f.getFn(ctx, pollID, requester, now)
	}
	return nil, poll.ErrPollNotFound
}

func (f *fakePollService) ListPolls(ctx context.Context, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error) {
	if f.listFn != nil {
		return f.listFn(ctx, requester, page, limit, now)
	}
	return &poll.Page{Page: page, Limit: limit}, nil
}

func (f *fakePollService) ListPollsCreatedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error) {
	if f.createdByFn != nil {
		return f.createdByFn(ctx, username, requester, page, limit, now)
	}
	return &poll.Page{Page: page, Limit: limit}, nil
}

func (f *fakePollService) ListPollsVotedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*poll.Page, error) {
	if f.votedByFn != nil {
		return f.votedByFn(ctx, username, requester, page, limit, now)
	}
	return &poll.Page{Page: page, Limit: limit}, nil
}

func (f *fakePollService) GetUserProfile(ctx context.Context, username string) (*poll.UserProfile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, username)
	}
	return nil, auth.ErrUserNotFound
}

type fakeVoteCaster struct {
	castFn func(ctx context.Context, identity *auth.Identity, pollID, choiceID int64, now time.Time) (*poll.PollResponse, error)
}

func (f *fakeVoteCaster) CastVote(ctx context.Context, identity *auth.Identity, pollID, choiceID int64, now time.Time) (*poll.PollResponse, error) {
	if f.castFn != nil {
		return f.castFn(ctx, identity, pollID, choiceID, now)
	}
	return &poll.PollResponse{ID: pollID, SelectedChoice: &choiceID, TotalVotes: 1}, nil
}

type fakeSignIn struct {
	signInFn func(ctx context.Context, usernameOrEmail, password string, now time.Time) (token.Issued, *auth.Identity, error)
}

func (f *fakeSignIn) SignIn(ctx context.Context, usernameOrEmail, password string, now time.Time) (token.Issued, *auth.Identity, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, usernameOrEmail, password, now)
	}
	return token.Issued{}, nil, auth.ErrInvalidCredentials
}

// --- Helpers ---

var alice = &auth.Identity{ID: 7, Username: "alice", Name: "Alice", Email: "alice@example.com", Roles: []auth.Role{auth.RoleUser}}

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, httptest.NewRecorder()
}

func asUser(req *http.Request, identity *auth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseEnvelope(t, w)["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	return errObj["code"].(string)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
