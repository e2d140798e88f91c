package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acarlson90/polls/internal/database"
)

const selectUsers = `
		SELECT u.id, u.name, u.username, u.email, u.password_hash,
		       COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}') AS roles,
		       u.created_at, u.updated_at
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id`

const groupUsers = `
		GROUP BY u.id`

// PostgresRepository implements UserRepository using pgx.
type PostgresRepository struct {
	db database.Querier
}

// NewRepository creates a new UserRepository backed by the given querier.
func NewRepository(db database.Querier) UserRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user record and its roles in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, u *User) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning user transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
		INSERT INTO users (name, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query, u.Name, u.Username, u.Email, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	if len(u.Roles) > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role) SELECT $1, unnest($2::text[])`,
			u.ID, roleStrings(u.Roles),
		)
		if err != nil {
			return fmt.Errorf("inserting user roles: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing user: %w", err)
	}
	return nil
}

// GetByID retrieves a single user by its id.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, selectUsers+`
		WHERE u.id = $1`+groupUsers, id)
}

// GetByUsername retrieves a single user by username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, selectUsers+`
		WHERE u.username = $1`+groupUsers, username)
}

// GetByUsernameOrEmail retrieves the user whose username or email equals the
// argument. A username match wins over another user's email.
func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*User, error) {
	return r.getOne(ctx, selectUsers+`
		WHERE u.username = $1 OR u.email = $1`+groupUsers+`
		ORDER BY (u.username = $1) DESC
		LIMIT 1`, usernameOrEmail)
}

// GetByIDs retrieves all users whose id is in ids with a single query.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return []User{}, nil
	}

	rows, err := r.db.Query(ctx, selectUsers+`
		WHERE u.id = ANY($1)`+groupUsers, ids)
	if err != nil {
		return nil, fmt.Errorf("querying users by ids: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// CountAll returns the total number of users in the table.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u     User
		roles []string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash,
		&roles,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Roles = make([]Role, 0, len(roles))
	for _, name := range roles {
		if role, ok := ParseRole(name); ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return &u, nil
}

func roleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
