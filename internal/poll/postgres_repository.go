package poll

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/acarlson90/polls/internal/database"
)

// maxOffset is the largest row offset Postgres accepts.
const maxOffset = math.MaxInt32

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	db database.Querier
}

// NewRepository creates a new Repository backed by the given querier.
func NewRepository(db database.Querier) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a poll and its choices in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, p *Poll) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning poll transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO polls (question, expiration_date_time, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query, p.Question, p.ExpirationDateTime, p.CreatedBy, p.CreatedAt).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting poll: %w", err)
	}

	texts := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		texts[i] = c.Text
	}

	rows, err := tx.Query(ctx, `
		INSERT INTO choices (poll_id, text, position)
		SELECT $1, t.text, t.position
		FROM unnest($2::text[]) WITH ORDINALITY AS t(text, position)
		RETURNING id, poll_id, text, position`, p.ID, texts)
	if err != nil {
		return fmt.Errorf("inserting choices: %w", err)
	}
	choices, err := collectChoices(rows)
	if err != nil {
		return err
	}
	p.Choices = choices

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing poll: %w", err)
	}
	return nil
}

// GetByID retrieves a single poll and its choices.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Poll, error) {
	query := `
		SELECT id, question, created_by, created_at, updated_at, expiration_date_time
		FROM polls
		WHERE id = $1`

	var p Poll
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.ExpirationDateTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("querying poll: %w", err)
	}

	choices, err := r.ListChoices(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	p.Choices = choices

	return &p, nil
}

// GetByIDs retrieves all polls whose id is in ids with a single query.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]Poll, error) {
	if len(ids) == 0 {
		return []Poll{}, nil
	}

	query := `
		SELECT id, question, created_by, created_at, updated_at, expiration_date_time
		FROM polls
		WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("querying polls by ids: %w", err)
	}
	defer rows.Close()

	polls := []Poll{}
	for rows.Next() {
		var p Poll
		err := rows.Scan(&p.ID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.ExpirationDateTime)
		if err != nil {
			return nil, fmt.Errorf("scanning poll row: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poll rows: %w", err)
	}

	return polls, nil
}

// ListIDs returns a page of poll ids matching filter, newest first.
func (r *PostgresRepository) ListIDs(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}

	var conditions []string
	var args []any
	argIdx := 1

	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_by = $%d", argIdx))
		args = append(args, *filter.CreatedBy)
		argIdx++
	}
	if filter.VotedBy != nil {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM votes v WHERE v.poll_id = p.id AND v.user_id = $%d)", argIdx))
		args = append(args, *filter.VotedBy)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM polls p %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting polls: %w", err)
	}

	// A page past maxOffset cannot hold rows; skip the query rather than
	// send an overflowed offset.
	if filter.Page-1 > maxOffset/filter.Limit {
		return &ListResult{IDs: []int64{}, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
	}
	offset := (filter.Page - 1) * filter.Limit

	dataQuery := fmt.Sprintf(`
		SELECT p.id
		FROM polls p
		%s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning poll id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poll ids: %w", err)
	}

	return &ListResult{IDs: ids, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ListChoices retrieves the choices of every given poll with a single query.
func (r *PostgresRepository) ListChoices(ctx context.Context, pollIDs []int64) ([]Choice, error) {
	if len(pollIDs) == 0 {
		return []Choice{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, poll_id, text, position
		FROM choices
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, position`, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("querying choices: %w", err)
	}
	return collectChoices(rows)
}

// CountVotesByChoice groups the votes of the given polls by choice.
func (r *PostgresRepository) CountVotesByChoice(ctx context.Context, pollIDs []int64) ([]ChoiceVoteCount, error) {
	if len(pollIDs) == 0 {
		return []ChoiceVoteCount{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT choice_id, COUNT(*)
		FROM votes
		WHERE poll_id = ANY($1)
		GROUP BY choice_id`, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}
	defer rows.Close()

	counts := []ChoiceVoteCount{}
	for rows.Next() {
		var c ChoiceVoteCount
		if err := rows.Scan(&c.ChoiceID, &c.VoteCount); err != nil {
			return nil, fmt.Errorf("scanning vote count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vote counts: %w", err)
	}

	return counts, nil
}

// FindUserVotes returns the votes userID cast on any of the given polls.
func (r *PostgresRepository) FindUserVotes(ctx context.Context, userID int64, pollIDs []int64) ([]Vote, error) {
	if len(pollIDs) == 0 {
		return []Vote{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, poll_id, choice_id, created_at
		FROM votes
		WHERE user_id = $1 AND poll_id = ANY($2)`, userID, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("querying user votes: %w", err)
	}
	defer rows.Close()

	votes := []Vote{}
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.PollID, &v.ChoiceID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning vote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vote rows: %w", err)
	}

	return votes, nil
}

// InsertVoteIfAbsent relies on the (poll_id, user_id) unique constraint, so
// concurrent attempts by the same user on the same poll cannot both succeed.
func (r *PostgresRepository) InsertVoteIfAbsent(ctx context.Context, v *Vote) error {
	query := `
		INSERT INTO votes (user_id, poll_id, choice_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, user_id) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, v.UserID, v.PollID, v.ChoiceID, v.CreatedAt).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsUniqueViolation(err) {
			return ErrVoteConflict
		}
		return fmt.Errorf("inserting vote: %w", err)
	}
	return nil
}

// CountByCreator returns the number of polls userID created.
func (r *PostgresRepository) CountByCreator(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM polls WHERE created_by = $1", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting polls by creator: %w", err)
	}
	return count, nil
}

// CountVotesByUser returns the number of votes userID cast.
func (r *PostgresRepository) CountVotesByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM votes WHERE user_id = $1", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting votes by user: %w", err)
	}
	return count, nil
}

func collectChoices(rows pgx.Rows) ([]Choice, error) {
	defer rows.Close()

	choices := []Choice{}
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.PollID, &c.Text, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning choice row: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating choice rows: %w", err)
	}

	sort.SliceStable(choices, func(i, j int) bool {
		if choices[i].PollID != choices[j].PollID {
			return choices[i].PollID < choices[j].PollID
		}
		return choices[i].Position < choices[j].Position
	})
	return choices, nil
}
