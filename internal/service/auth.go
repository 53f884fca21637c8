package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/account-portal/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor of the original user database.
const DefaultBcryptCost = 10

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User      domain.PublicUser
	Token     string
	ExpiresAt time.Time
}

// AuthService handles user registration and login.
type AuthService struct {
	users      domain.UserRepository
	sessions   *SessionManager
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, sessions *SessionManager, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account after validating inputs and starts a
// session for it.
func (s *AuthService) Register(ctx context.Context, name, email, password, region string) (*AuthResult, error) {
	name = Sanitize(name)
	email = Sanitize(email)
	region = Sanitize(region)

	if name == "" || email == "" || password == "" || region == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "Username, email, password, and region are required.")
	}

	if err := ValidateUsername(name); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, name, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       name,
		Email:          email,
		PasswordHash:   string(hash),
		Region:         region,
		ProfilePicture: domain.DefaultProfilePicture,
	}

	// The repository repeats the uniqueness check atomically, so a
	// registration racing past ensureAvailable still fails here.
	if err := s.users.Create(ctx, user); err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.startSession(ctx, user)
}

// Login verifies credentials and starts a session.
// An unknown username is reported before the password is checked.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "Username and password are required.")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "User not found.")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.NewError(domain.ErrUnauthorized, "Incorrect password.")
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	return s.startSession(ctx, user)
}

// Logout ends the session referenced by token. Invalid or unknown tokens
// are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return conflictError(domain.ErrDuplicateUsername)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get user by username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return conflictError(domain.ErrDuplicateEmail)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get user by email: %w", err)
	}

	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, session, err := s.sessions.Issue(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &AuthResult{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// conflictError maps repository duplicate errors to client messages.
// It returns nil for any other error.
func conflictError(err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return &domain.Error{Kind: domain.ErrDuplicateUsername, Message: "Username already taken."}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return &domain.Error{Kind: domain.ErrDuplicateEmail, Message: "Email already registered."}
	}
	return nil
}
