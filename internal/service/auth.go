package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathurkshitij3776/Realpick/internal/auth"
	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/event"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
	"github.com/mathurkshitij3776/Realpick/pkg/validator"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements signup, login and profile management.
type AuthService struct {
	users       repository.UserRepository
	jwt         *auth.JWTManager
	producer    *event.Producer
	adminEmails map[string]bool
	logger      *slog.Logger
	now         Clock
	cost        int
}

// NewAuthService creates a new auth service. Addresses in adminEmails are
// granted the admin flag when they sign up.
func NewAuthService(
	users repository.UserRepository,
	jwt *auth.JWTManager,
	producer *event.Producer,
	adminEmails []string,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = domain.NormalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &AuthService{
		users:       users,
		jwt:         jwt,
		producer:    producer,
		adminEmails: admins,
		logger:      logger,
		now:         time.Now,
		cost:        bcryptCost,
	}
}

// --- Input/Output types ---

// SignupInput holds the parameters for registering a new user.
type SignupInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput holds the profile fields to change. Nil fields are kept.
type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

// AuthResult is returned by operations that issue a session.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Signup creates an account and returns it with a session token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, validator.NewValidationError(map[string]string{"password": "must be at most 72 bytes"})
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		IsAdmin:      s.adminEmails[in.Email],
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.Bool("is_admin", user.IsAdmin),
	)

	return result, nil
}

// Login verifies credentials against the stored hash.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return result, nil
}

// Profile returns the stored user for actor.
func (s *AuthService) Profile(ctx context.Context, actor *Actor) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the actor's name or email and reissues the token so
// its claims match the stored record.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *Actor, in UpdateProfileInput) (*AuthResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		in.Name = &n
	}
	if in.Email != nil {
		e := domain.NormalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validator.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
