package poll_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/acarlson90/polls/internal/auth"
	"github.com/acarlson90/polls/internal/poll"
)

// memRepo is an in-memory Repository. Vote uniqueness is enforced under the
// same lock as the insert, mirroring the database constraint.
type memRepo struct {
	mu      sync.Mutex
	nextID  int64
	polls   map[int64]poll.Poll
	choices []poll.Choice
	votes   []poll.Vote

	calls map[string]int

	getByIDsErr error
	insertErr   error
}

var _ poll.Repository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{nextID: 100, polls: map[int64]poll.Poll{}, calls: map[string]int{}}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

// addPoll stores a poll with the given choice texts and returns it with ids filled in.
func (m *memRepo) addPoll(createdBy int64, question string, createdAt, expires time.Time, texts ...string) poll.Poll {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := poll.Poll{ID: m.id(), Question: question, CreatedBy: createdBy, CreatedAt: createdAt, UpdatedAt: createdAt, ExpirationDateTime: expires}
	for i, t := range texts {
		c := poll.Choice{ID: m.id(), PollID: p.ID, Text: t, Position: i + 1}
		m.choices = append(m.choices, c)
		p.Choices = append(p.Choices, c)
	}
	stored := p
	stored.Choices = nil
	m.polls[p.ID] = stored
	return p
}

func (m *memRepo) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *memRepo) Create(_ context.Context, p *poll.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Create"]++
	p.ID = m.id()
	p.UpdatedAt = p.CreatedAt
	for i := range p.Choices {
		p.Choices[i].ID = m.id()
		p.Choices[i].PollID = p.ID
		p.Choices[i].Position = i + 1
		m.choices = append(m.choices, p.Choices[i])
	}
	stored := *p
	stored.Choices = nil
	m.polls[p.ID] = stored
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*poll.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetByID"]++
	p, ok := m.polls[id]
	if !ok {
		return nil, poll.ErrPollNotFound
	}
	for _, c := range m.choices {
		if c.PollID == id {
			p.Choices = append(p.Choices, c)
		}
	}
	return &p, nil
}

func (m *memRepo) GetByIDs(_ context.Context, ids []int64) ([]poll.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetByIDs"]++
	if m.getByIDsErr != nil {
		return nil, m.getByIDsErr
	}
	out := []poll.Poll{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if p, ok := m.polls[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	// The store makes no ordering promise.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) ListIDs(_ context.Context, f poll.ListFilter) (*poll.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListIDs"]++
	var matched []poll.Poll
	for _, p := range m.polls {
		if f.CreatedBy != nil && p.CreatedBy != *f.CreatedBy {
			continue
		}
		if f.VotedBy != nil && !m.hasVoteLocked(*f.VotedBy, p.ID) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = poll.DefaultPageSize
	}
	ids := []int64{}
	for i := (f.Page - 1) * f.Limit; i < len(matched) && len(ids) < f.Limit; i++ {
		ids = append(ids, matched[i].ID)
	}
	return &poll.ListResult{IDs: ids, Total: len(matched), Page: f.Page, Limit: f.Limit}, nil
}

func (m *memRepo) hasVoteLocked(userID, pollID int64) bool {
	for _, v := range m.votes {
		if v.UserID == userID && v.PollID == pollID {
			return true
		}
	}
	return false
}

func (m *memRepo) ListChoices(_ context.Context, pollIDs []int64) ([]poll.Choice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListChoices"]++
	in := toSet(pollIDs)
	out := []poll.Choice{}
	for _, c := range m.choices {
		if in[c.PollID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) CountVotesByChoice(_ context.Context, pollIDs []int64) ([]poll.ChoiceVoteCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CountVotesByChoice"]++
	in := toSet(pollIDs)
	counts := map[int64]int64{}
	for _, v := range m.votes {
		if in[v.PollID] {
			counts[v.ChoiceID]++
		}
	}
	out := []poll.ChoiceVoteCount{}
	for id, n := range counts {
		out = append(out, poll.ChoiceVoteCount{ChoiceID: id, VoteCount: n})
	}
	return out, nil
}

func (m *memRepo) FindUserVotes(_ context.Context, userID int64, pollIDs []int64) ([]poll.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindUserVotes"]++
	in := toSet(pollIDs)
	out := []poll.Vote{}
	for _, v := range m.votes {
		if v.UserID == userID && in[v.PollID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memRepo) InsertVoteIfAbsent(_ context.Context, v *poll.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["InsertVoteIfAbsent"]++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.hasVoteLocked(v.UserID, v.PollID) {
		return poll.ErrVoteConflict
	}
	v.ID = m.id()
	m.votes = append(m.votes, *v)
	return nil
}

func (m *memRepo) CountByCreator(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.polls {
		if p.CreatedBy == userID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CountVotesByUser(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.votes {
		if v.UserID == userID {
			n++
		}
	}
	return n, nil
}

func toSet(ids []int64) map[int64]bool {
	s := make(map[int64]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]auth.User
	calls int
}

func newFakeUsers(users ...auth.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]auth.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []int64) ([]auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := []auth.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveVote(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
