package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acarlson90/polls/internal/auth"
)

var (
	// ErrPollExpired is returned when a vote arrives at or after the poll's expiration.
	ErrPollExpired = errors.New("poll has expired")

	// ErrInvalidChoice is returned when the choice does not belong to the poll.
	ErrInvalidChoice = errors.New("choice does not belong to poll")

	// ErrAlreadyVoted is returned when the user already has a vote on the poll.
	ErrAlreadyVoted = errors.New("user has already voted on poll")

	// ErrIdentityRequired is returned when a vote is cast without an identity.
	ErrIdentityRequired = errors.New("voting requires an authenticated identity")
)

// Vote outcomes reported to a VoteObserver.
const (
	OutcomeAccepted      = "accepted"
	OutcomeNotFound      = "not_found"
	OutcomeExpired       = "expired"
	OutcomeInvalidChoice = "invalid_choice"
	OutcomeDuplicate     = "duplicate"
	OutcomeError         = "error"
)

// VoteObserver receives the outcome of every vote attempt.
type VoteObserver interface {
	ObserveVote(outcome string)
}

// Ledger records votes, allowing at most one per user per poll.
type Ledger struct {
	polls      Repository
	aggregator *Aggregator
	observer   VoteObserver
}

// NewLedger creates a Ledger. observer may be nil.
func NewLedger(polls Repository, aggregator *Aggregator, observer VoteObserver) *Ledger {
	return &Ledger{polls: polls, aggregator: aggregator, observer: observer}
}

// CastVote records identity's vote for choiceID on pollID and returns the
// poll as seen at now, including the new vote. Preconditions are checked in
// order: the poll exists, now is before its expiration, and the choice
// belongs to it. Uniqueness is left to the store so that concurrent
// attempts by the same user cannot both succeed.
func (l *Ledger) CastVote(ctx context.Context, identity *auth.Identity, pollID, choiceID int64, now time.Time) (*PollResponse, error) {
	resp, err := l.castVote(ctx, identity, pollID, choiceID, now)
	l.observe(err)
	return resp, err
}

func (l *Ledger) castVote(ctx context.Context, identity *auth.Identity, pollID, choiceID int64, now time.Time) (*PollResponse, error) {
	if identity == nil {
		return nil, ErrIdentityRequired
	}

	p, err := l.polls.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, ErrPollNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("loading poll %d: %w", pollID, err)
	}

	if !now.Before(p.ExpirationDateTime) {
		return nil, ErrPollExpired
	}

	if _, ok := p.Choice(choiceID); !ok {
		return nil, ErrInvalidChoice
	}

	vote := &Vote{UserID: identity.ID, PollID: pollID, ChoiceID: choiceID, CreatedAt: now}
	if err := l.polls.InsertVoteIfAbsent(ctx, vote); err != nil {
		if errors.Is(err, ErrVoteConflict) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("recording vote: %w", err)
	}

	return l.aggregator.AggregateOne(ctx, pollID, identity, now)
}

func (l *Ledger) observe(err error) {
	if l.observer == nil {
		return
	}
	outcome := OutcomeError
	switch {
	case err == nil:
		outcome = OutcomeAccepted
	case errors.Is(err, ErrPollNotFound):
		outcome = OutcomeNotFound
	case errors.Is(err, ErrPollExpired):
		outcome = OutcomeExpired
	case errors.Is(err, ErrInvalidChoice):
		outcome = OutcomeInvalidChoice
	case errors.Is(err, ErrAlreadyVoted):
		outcome = OutcomeDuplicate
	}
	l.observer.ObserveVote(outcome)
}
