package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/acarlson90/polls/internal/auth"
)

const (
	// DefaultPageSize is used when a listing does not ask for a page size.
	DefaultPageSize = 30
	// MaxPageSize is the largest page size a listing may ask for.
	MaxPageSize = 50
)

// UserStore is the subset of the user repository the poll service needs.
type UserStore interface {
	UserLookup
	GetByUsername(ctx context.Context, username string) (*auth.User, error)
}

// Service provides poll creation and listing operations.
type Service struct {
	polls      Repository
	users      UserStore
	aggregator *Aggregator
}

// NewService creates a new poll Service.
func NewService(polls Repository, users UserStore, aggregator *Aggregator) *Service {
	return &Service{polls: polls, users: users, aggregator: aggregator}
}

// CreatePoll stores a poll owned by creator that closes np.Duration after now.
func (s *Service) CreatePoll(ctx context.Context, creator *auth.Identity, np NewPoll, now time.Time) (*PollResponse, error) {
	if creator == nil {
		return nil, ErrIdentityRequired
	}

	p := &Poll{
		Question:           np.Question,
		CreatedBy:          creator.ID,
		CreatedAt:          now,
		ExpirationDateTime: now.Add(np.Duration),
	}
	for _, text := range np.Choices {
		p.Choices = append(p.Choices, Choice{Text: text})
	}

	if err := s.polls.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating poll: %w", err)
	}

	return s.aggregator.AggregateOne(ctx, p.ID, creator, now)
}

// GetPoll returns the view of one poll as seen by requester at now.
func (s *Service) GetPoll(ctx context.Context, pollID int64, requester *auth.Identity, now time.Time) (*PollResponse, error) {
	return s.aggregator.AggregateOne(ctx, pollID, requester, now)
}

// ListPolls returns a page of all polls, newest first.
func (s *Service) ListPolls(ctx context.Context, requester *auth.Identity, page, limit int, now time.Time) (*Page, error) {
	return s.list(ctx, ListFilter{Page: page, Limit: limit}, requester, now)
}

// ListPollsCreatedBy returns a page of the polls created by username.
func (s *Service) ListPollsCreatedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*Page, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{CreatedBy: &u.ID, Page: page, Limit: limit}, requester, now)
}

// ListPollsVotedBy returns a page of the polls username voted on.
func (s *Service) ListPollsVotedBy(ctx context.Context, username string, requester *auth.Identity, page, limit int, now time.Time) (*Page, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ListFilter{VotedBy: &u.ID, Page: page, Limit: limit}, requester, now)
}

// GetUserProfile returns the public profile of username.
func (s *Service) GetUserProfile(ctx context.Context, username string) (*UserProfile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	polls, err := s.polls.CountByCreator(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	votes, err := s.polls.CountVotesByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		JoinedAt:  u.CreatedAt,
		PollCount: polls,
		VoteCount: votes,
	}, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter, requester *auth.Identity, now time.Time) (*Page, error) {
	res, err := s.polls.ListIDs(ctx, filter)
	if err != nil {
		return nil, err
	}

	polls, err := s.aggregator.AggregateMany(ctx, res.IDs, requester, now)
	if err != nil {
		return nil, err
	}

	return &Page{Polls: polls, Total: res.Total, Page: res.Page, Limit: res.Limit}, nil
}
