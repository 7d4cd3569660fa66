package repository

import (
	"context"
	"github.com/google/uuid"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"sync"
)

// UserRepository stores administrator accounts keyed by normalized email.
type UserRepository interface {
	// GetByEmail returns domain.ErrUserNotFound when no account matches.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Add assigns the ID and returns domain.ErrConflict for a taken email.
	Add(ctx context.Context, user *domain.User) error
}

type memoryUserRepository struct {
	users map[string]*domain.User
	mutex sync.RWMutex
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (r *memoryUserRepository) Add(ctx context.Context, user *domain.User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, exists := r.users[email]; exists {
		return domain.ErrConflict
	}

	user.ID = uuid.NewString()
	user.Email = email
	stored := *user
	r.users[email] = &stored
	return nil
}
