package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Provider issues and validates bearer tokens and manages accounts.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	GetUser(ctx context.Context, token string) (*User, error)
	InvalidateSessions(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	UpsertUser(ctx context.Context, input CreateUserInput) (*User, bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       Repository
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(repo Repository, sessionTTL time.Duration) Provider {
	return &service{repo: repo, sessionTTL: sessionTTL, now: time.Now}
}

func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("Missing credentials")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		log.Error().Err(err).Msg("identity: failed to load account for sign in")
		return nil, apperr.Internal("Failed to sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Stringer("user_id", user.ID).Msg("identity: password mismatch")
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if user.Disabled {
		return nil, apperr.Unauthorized("Account is disabled")
	}

	token, err := uuid.NewV4()
	if err != nil {
		return nil, apperr.Internal("Failed to sign in", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.sessionTTL)
	if err := s.repo.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		log.Error().Err(err).Stringer("user_id", user.ID).Msg("identity: failed to create session")
		return nil, apperr.Internal("Failed to sign in", err)
	}

	if err := s.repo.TouchSignIn(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Stringer("user_id", user.ID).Msg("identity: failed to record sign in time")
	} else {
		user.LastSignInAt = &now
	}

	log.Info().Stringer("user_id", user.ID).Stringer("role", user.Role).Msg("identity: user signed in")
	return &Session{
		AccessToken: token.String(),
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int(s.sessionTTL.Seconds()),
		User:        user,
	}, nil
}

func (s *service) GetUser(ctx context.Context, token string) (*User, error) {
	parsed, err := uuid.FromString(strings.TrimSpace(token))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token")
	}

	user, err := s.repo.GetSessionUser(ctx, parsed, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, apperr.Unauthorized("Invalid token")
		}
		log.Error().Err(err).Msg("identity: failed to resolve session")
		return nil, apperr.Internal("Failed to validate token", err)
	}
	if user.Disabled {
		return nil, apperr.Unauthorized("Account is disabled")
	}
	return user, nil
}

func (s *service) InvalidateSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteSessions(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("identity: failed to invalidate sessions")
		return apperr.Internal("Failed to logout", err)
	}
	log.Info().Stringer("user_id", userID).Msg("identity: sessions invalidated")
	return nil
}

// Refresh is not offered by this deployment: tokens are opaque and a client
// signs in again when its session expires.
func (s *service) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Validation("Missing refresh_token")
	}
	return nil, apperr.NotImplemented("Refresh token flow is not supported; sign in again to obtain a new session")
}

func (s *service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	user, err := s.newUser(input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperr.Validation("Email already exists")
		}
		log.Error().Err(err).Msg("identity: failed to create account")
		return nil, apperr.Internal("Failed to create user", err)
	}

	log.Info().Stringer("user_id", user.ID).Stringer("role", user.Role).Msg("identity: account created")
	return user, nil
}

// UpsertUser creates the account or, when the email is taken, updates its
// name, role and password. The boolean reports whether a new account was made.
func (s *service) UpsertUser(ctx context.Context, input CreateUserInput) (*User, bool, error) {
	created, err := s.CreateUser(ctx, input)
	if err == nil {
		return created, true, nil
	}
	if !apperr.Is(err, apperr.KindValidation) {
		return nil, false, err
	}

	existing, getErr := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if getErr != nil {
		// The validation failure was not a duplicate email.
		return nil, false, err
	}

	role := input.Role
	updated, err := s.UpdateUser(ctx, existing.ID, UpdateUserInput{
		Name:     input.Name,
		Phone:    input.Phone,
		Role:     &role,
		Password: &input.Password,
	})
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("identity: failed to list accounts")
		return nil, apperr.Internal("Failed to list users", err)
	}
	return users, nil
}

func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to update user", err)
	}

	if input.Name != nil {
		user.Name = input.Name
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown role %q", *input.Role))
		}
		user.Role = *input.Role
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, apperr.Internal("Failed to update user", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("identity: failed to update account")
		return nil, apperr.Internal("Failed to update user", err)
	}

	if user.Disabled {
		if err := s.repo.DeleteSessions(ctx, id); err != nil {
			log.Warn().Err(err).Stringer("user_id", id).Msg("identity: failed to drop sessions of disabled account")
		}
	}

	return user, nil
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("identity: failed to delete account")
		return apperr.Internal("Failed to delete user", err)
	}
	log.Info().Stringer("user_id", id).Msg("identity: account deleted")
	return nil
}

func (s *service) newUser(input CreateUserInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if input.Password == "" {
		return nil, apperr.Validation("password cannot be empty")
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown role %q", role))
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to create user", err)
	}

	return &User{
		Email:        email,
		Name:         input.Name,
		Phone:        input.Phone,
		Role:         role,
		PasswordHash: hash,
	}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("identity: failed to generate password hash")
		return "", fmt.Errorf("internal error hashing password: %w", err)
	}
	return string(hash), nil
}
