package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"time"
)

// Service registers administrators, logs them in and checks their tokens.
type Service interface {
	Register(ctx context.Context, creds domain.Credentials) error
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	Verify(token string) (*Claims, error)
}

type service struct {
	users      repository.UserRepository
	tokens     *Tokens
	validation *domain.Validation
	log        hclog.Logger
}

func NewService(users repository.UserRepository, tokens *Tokens, validation *domain.Validation, log hclog.Logger) Service {
	return &service{
		users:      users,
		tokens:     tokens,
		validation: validation,
		log:        log,
	}
}

func (s *service) Register(ctx context.Context, creds domain.Credentials) error {
	creds.Email = domain.NormalizeEmail(creds.Email)
	if err := s.validation.Validate(creds); err != nil {
		return err
	}

	hash, err := HashPassword(creds.Password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        creds.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Add(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.Debug("Email already registered", "email", creds.Email)
			return err
		}
		return fmt.Errorf("register user: %w", err)
	}

	s.log.Info("Registered administrator", "id", user.ID, "email", user.Email)
	return nil
}

func (s *service) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	creds.Email = domain.NormalizeEmail(creds.Email)
	if err := s.validation.Validate(creds); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, creds.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, creds.Password) {
		s.log.Debug("Wrong password", "email", creds.Email)
		return "", domain.ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}

func (s *service) Verify(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}
