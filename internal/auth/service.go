package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/acarlson90/polls/internal/token"
)

// ErrInvalidCredentials is returned when sign-in fails for any reason tied to
// the supplied credentials. Unknown users and wrong passwords are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username, email or password")

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(identityID int64, now time.Time) (token.Issued, error)
}

// AdminAccount describes the administrator created on first start.
type AdminAccount struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Service provides sign-in and account bootstrap operations.
type Service struct {
	userRepo   UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, tokens TokenIssuer, bcryptCost int, logger *zap.Logger) *Service {
	return &Service{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// SignIn checks the password of the user named by usernameOrEmail and issues
// a token valid from now.
func (s *Service) SignIn(ctx context.Context, usernameOrEmail, password string, now time.Time) (token.Issued, *Identity, error) {
	u, err := s.userRepo.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return token.Issued{}, nil, ErrInvalidCredentials
		}
		return token.Issued{}, nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return token.Issued{}, nil, ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(u.ID, now)
	if err != nil {
		return token.Issued{}, nil, fmt.Errorf("issuing token: %w", err)
	}

	return issued, u.Identity(), nil
}

// BootstrapAdmin creates the initial administrator if the users table is empty.
// It reports whether a user was created.
func (s *Service) BootstrapAdmin(ctx context.Context, admin AdminAccount) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		return false, nil
	}

	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hashing admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = admin.Username
	}
	email := admin.Email
	if email == "" {
		email = admin.Username + "@localhost"
	}

	user := &User{
		Name:         name,
		Username:     admin.Username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []Role{RoleUser, RoleAdmin},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	return true, nil
}
