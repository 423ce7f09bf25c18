package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/google/uuid"
)

const MinPasswordLength = 6

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserCommand carries only the fields being changed.
type UpdateUserCommand struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users  interfaces.UserRepository
	hasher interfaces.PasswordHasher
	tokens interfaces.TokenIssuer
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(users interfaces.UserRepository, hasher interfaces.PasswordHasher, tokens interfaces.TokenIssuer, logger logger.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Register creates an account. Anyone may register a client; other roles
// need an owner as actor.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand, actor *domain.User) (*Session, error) {
	if cmd.Role == "" {
		cmd.Role = domain.RoleClient
	}
	if !cmd.Role.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	if cmd.Role != domain.RoleClient && (actor == nil || !actor.IsOwner()) {
		return nil, domain.ErrForbidden
	}

	email := domain.NormalizeEmail(cmd.Email)
	if err := validateName(cmd.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(cmd.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           s.newID(),
		Name:         strings.TrimSpace(cmd.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         cmd.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user_registered", fmt.Sprintf("User %s registered", user.Email), "", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return s.issue(user)
}

// Login never tells an unknown email apart from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, found, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.logger.Debug("login_failed", "Wrong password", "", map[string]interface{}{"user_id": user.ID})
		}
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info("user_logged_in", fmt.Sprintf("User %s logged in", user.Email), "", map[string]interface{}{"user_id": user.ID})
	return s.issue(user)
}

func (s *Service) issue(user *domain.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// Authenticate resolves a bearer token to the current user record.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, found, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.CanView(id) {
		return nil, domain.ErrForbidden
	}
	return s.find(ctx, id)
}

func (s *Service) find(ctx context.Context, id string) (*domain.User, error) {
	user, found, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.IsOwner() {
		return nil, domain.ErrForbidden
	}
	return s.users.List(ctx)
}

// UpdateUser lets users edit themselves and owners edit anyone. Only an
// owner may change a role.
func (s *Service) UpdateUser(ctx context.Context, actor *domain.User, id string, cmd UpdateUserCommand) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.CanEdit(id) {
		return nil, domain.ErrForbidden
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		if err := validateName(*cmd.Name); err != nil {
			return nil, err
		}
		user.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Email != nil {
		email := domain.NormalizeEmail(*cmd.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if cmd.Password != nil {
		if err := validatePassword(*cmd.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if cmd.Role != nil && *cmd.Role != user.Role {
		if !actor.IsOwner() {
			return nil, domain.ErrForbidden
		}
		if !cmd.Role.IsValid() {
			return nil, domain.ErrInvalidRole
		}
		user.Role = *cmd.Role
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user_updated", fmt.Sprintf("User %s updated", user.ID), "", map[string]interface{}{"by": actor.ID})
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.IsOwner() {
		return domain.ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user_deleted", fmt.Sprintf("User %s deleted", id), "", map[string]interface{}{"by": actor.ID})
	return nil
}
