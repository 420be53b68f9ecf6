package services

import (
	"context"
	"errors"
	"fmt"

	"likeboard/app/log"
	"likeboard/app/models"
	"likeboard/app/repositories"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer mints a session token for a user.
type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// UserService handles signup, login and account lookup
type UserService struct {
	users  repositories.UserRepository
	tokens TokenIssuer
	cost   int
	logger zerolog.Logger
}

// UserServiceOption configures a UserService.
type UserServiceOption func(*UserService)

// WithPasswordCost sets the bcrypt cost used for new passwords.
func WithPasswordCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.cost = cost
	}
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, tokens TokenIssuer, opts ...UserServiceOption) *UserService {
	s := &UserService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		logger: log.WithComponent("users"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new member after checking the form.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Nickname: req.Nickname, PasswordHash: hash}
	user.BeforeCreate()
	if err := user.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("nickname %q: %w", req.Nickname, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Str("nickname", user.Nickname).Msg("user signed up")
	return user, nil
}

// Login checks the credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, nickname, password string) (string, *models.User, error) {
	user, err := s.users.GetByNickname(ctx, nickname)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return token, user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
