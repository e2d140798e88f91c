package poll

import (
	"time"

	"github.com/acarlson90/polls/internal/auth"
)

// Poll represents a row in the polls table. Choices are populated only by
// queries that say so.
type Poll struct {
	ID                 int64
	Question           string
	Choices            []Choice
	CreatedBy          int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ExpirationDateTime time.Time
}

// Choice returns the choice of p with the given id.
func (p *Poll) Choice(id int64) (Choice, bool) {
	for _, c := range p.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Choice represents a row in the choices table.
type Choice struct {
	ID       int64
	PollID   int64
	Text     string
	Position int
}

// Vote represents a row in the votes table. At most one exists per (PollID, UserID).
type Vote struct {
	ID        int64
	UserID    int64
	PollID    int64
	ChoiceID  int64
	CreatedAt time.Time
}

// ChoiceVoteCount is the number of votes a choice has received.
type ChoiceVoteCount struct {
	ChoiceID  int64
	VoteCount int64
}

// NewPoll holds the fields needed to create a poll.
type NewPoll struct {
	Question string
	Choices  []string
	Duration time.Duration
}

// ListFilter holds optional filters and pagination for listing polls.
type ListFilter struct {
	CreatedBy *int64
	VotedBy   *int64
	Page      int // 1-based
	Limit     int
}

// ListResult holds one page of poll ids, newest first, and the total match count.
type ListResult struct {
	IDs   []int64
	Total int
	Page  int
	Limit int
}

// Page is one page of aggregated polls.
type Page struct {
	Polls []PollResponse
	Total int
	Page  int
	Limit int
}

// PollResponse is the read view of a poll as of a single instant.
type PollResponse struct {
	ID                 int64            `json:"id"`
	Question           string           `json:"question"`
	Choices            []ChoiceResponse `json:"choices"`
	CreatedBy          auth.UserSummary `json:"createdBy"`
	CreationDateTime   time.Time        `json:"creationDateTime"`
	ExpirationDateTime time.Time        `json:"expirationDateTime"`
	IsExpired          bool             `json:"isExpired"`
	SelectedChoice     *int64           `json:"selectedChoice,omitempty"`
	TotalVotes         int64            `json:"totalVotes"`
}

// ChoiceResponse is one choice of a PollResponse with its tally.
type ChoiceResponse struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"voteCount"`
}

// UserProfile is the public profile of a user with their activity counts.
type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joinedAt"`
	PollCount int       `json:"pollCount"`
	VoteCount int       `json:"voteCount"`
}
