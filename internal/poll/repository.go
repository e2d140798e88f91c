package poll

import (
	"context"
	"errors"
)

// ErrPollNotFound is returned when a poll record is not found.
var ErrPollNotFound = errors.New("poll not found")

// ErrVoteConflict is returned by InsertVoteIfAbsent when the user already
// has a vote on the poll.
var ErrVoteConflict = errors.New("vote already exists for user and poll")

// Repository provides access to polls, choices and votes.
type Repository interface {
	// Create inserts the poll and its choices atomically, filling in generated ids.
	Create(ctx context.Context, p *Poll) error
	// GetByID returns the poll with its choices in position order.
	GetByID(ctx context.Context, id int64) (*Poll, error)
	// GetByIDs returns the polls that exist among ids, without choices, in no particular order.
	GetByIDs(ctx context.Context, ids []int64) ([]Poll, error)
	// ListIDs returns one page of poll ids ordered newest first.
	ListIDs(ctx context.Context, filter ListFilter) (*ListResult, error)
	// ListChoices returns the choices of all given polls, ordered by poll then position.
	ListChoices(ctx context.Context, pollIDs []int64) ([]Choice, error)
	// CountVotesByChoice returns vote counts grouped by choice. Choices without votes are absent.
	CountVotesByChoice(ctx context.Context, pollIDs []int64) ([]ChoiceVoteCount, error)
	// FindUserVotes returns userID's votes on any of the given polls.
	FindUserVotes(ctx context.Context, userID int64, pollIDs []int64) ([]Vote, error)
	// InsertVoteIfAbsent records v unless the user already voted on the poll,
	// in which case it returns ErrVoteConflict. The check and insert are one atomic statement.
	InsertVoteIfAbsent(ctx context.Context, v *Vote) error
	CountByCreator(ctx context.Context, userID int64) (int, error)
	CountVotesByUser(ctx context.Context, userID int64) (int, error)
}
