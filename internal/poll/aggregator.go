package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/acarlson90/polls/internal/auth"
)

// UserLookup fetches users in bulk for creator summaries.
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]auth.User, error)
}

// Aggregator builds PollResponses from stored polls, choices and votes. Each
// call issues one batched query per kind of data regardless of how many polls
// it covers, and evaluates expiry against the single instant it is given.
type Aggregator struct {
	polls Repository
	users UserLookup
}

// NewAggregator creates an Aggregator.
func NewAggregator(polls Repository, users UserLookup) *Aggregator {
	return &Aggregator{polls: polls, users: users}
}

// AggregateOne returns the view of a single poll, or ErrPollNotFound.
func (a *Aggregator) AggregateOne(ctx context.Context, pollID int64, requester *auth.Identity, now time.Time) (*PollResponse, error) {
	out, err := a.AggregateMany(ctx, []int64{pollID}, requester, now)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrPollNotFound
	}
	return &out[0], nil
}

// AggregateMany returns the views of pollIDs in input order. Ids that no
// longer exist are skipped. requester may be nil, in which case no
// SelectedChoice is reported.
func (a *Aggregator) AggregateMany(ctx context.Context, pollIDs []int64, requester *auth.Identity, now time.Time) ([]PollResponse, error) {
	if len(pollIDs) == 0 {
		return []PollResponse{}, nil
	}

	polls, err := a.polls.GetByIDs(ctx, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("loading polls: %w", err)
	}
	byID := make(map[int64]*Poll, len(polls))
	for i := range polls {
		byID[polls[i].ID] = &polls[i]
	}

	found := make([]int64, 0, len(polls))
	creatorSet := make(map[int64]struct{}, len(polls))
	var creators []int64
	for _, p := range polls {
		found = append(found, p.ID)
		if _, seen := creatorSet[p.CreatedBy]; !seen {
			creatorSet[p.CreatedBy] = struct{}{}
			creators = append(creators, p.CreatedBy)
		}
	}
	if len(found) == 0 {
		return []PollResponse{}, nil
	}

	choices, err := a.polls.ListChoices(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("loading choices: %w", err)
	}
	for _, c := range choices {
		if p, ok := byID[c.PollID]; ok {
			p.Choices = append(p.Choices, c)
		}
	}

	counts, err := a.polls.CountVotesByChoice(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("loading vote counts: %w", err)
	}
	countByChoice := make(map[int64]int64, len(counts))
	for _, c := range counts {
		countByChoice[c.ChoiceID] = c.VoteCount
	}

	selected := map[int64]int64{}
	if requester != nil {
		votes, err := a.polls.FindUserVotes(ctx, requester.ID, found)
		if err != nil {
			return nil, fmt.Errorf("loading requester votes: %w", err)
		}
		for _, v := range votes {
			selected[v.PollID] = v.ChoiceID
		}
	}

	users, err := a.users.GetByIDs(ctx, creators)
	if err != nil {
		return nil, fmt.Errorf("loading poll creators: %w", err)
	}
	summaries := make(map[int64]auth.UserSummary, len(users))
	for i := range users {
		summaries[users[i].ID] = users[i].Summary()
	}

	out := make([]PollResponse, 0, len(pollIDs))
	for _, id := range pollIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		creator, ok := summaries[p.CreatedBy]
		if !ok {
			creator = auth.UserSummary{ID: p.CreatedBy}
		}
		resp := buildResponse(p, countByChoice, creator, now)
		if choiceID, ok := selected[p.ID]; ok {
			resp.SelectedChoice = &choiceID
		}
		out = append(out, resp)
	}

	return out, nil
}

func buildResponse(p *Poll, counts map[int64]int64, creator auth.UserSummary, now time.Time) PollResponse {
	resp := PollResponse{
		ID:                 p.ID,
		Question:           p.Question,
		Choices:            make([]ChoiceResponse, len(p.Choices)),
		CreatedBy:          creator,
		CreationDateTime:   p.CreatedAt,
		ExpirationDateTime: p.ExpirationDateTime,
		IsExpired:          p.ExpirationDateTime.Before(now),
	}
	for i, c := range p.Choices {
		n := counts[c.ID]
		resp.Choices[i] = ChoiceResponse{ID: c.ID, Text: c.Text, VoteCount: n}
		resp.TotalVotes += n
	}
	return resp
}
