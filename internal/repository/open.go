package repository

import (
	"context"
	"strings"
)

// Store bundles the repositories of one backend.
type Store interface {
	Products() ProductRepository
	Users() UserRepository
	Close() error
}

// Kind names a storage backend.
type Kind string

const (
	KindMemory Kind = "memory"
	KindMongo  Kind = "mongodb"
	KindSQLite Kind = "sqlite"
)

// DetectKind picks the backend for a DATABASE_URL value.
func DetectKind(databaseURL string) Kind {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return KindMemory
	case strings.HasPrefix(u, "mongodb://"), strings.HasPrefix(u, "mongodb+srv://"):
		return KindMongo
	default:
		return KindSQLite
	}
}

// Open connects to the backend named by databaseURL. An empty URL keeps
// everything in memory.
func Open(ctx context.Context, databaseURL, mongoDatabase string) (Store, error) {
	u := strings.TrimSpace(databaseURL)
	switch DetectKind(u) {
	case KindMongo:
		return OpenMongo(ctx, u, mongoDatabase)
	case KindSQLite:
		return OpenSQLite(strings.TrimPrefix(u, "sqlite://"))
	default:
		return NewMemoryStore(), nil
	}
}

type memoryStore struct {
	products ProductRepository
	users    UserRepository
}

// NewMemoryStore returns a process-local store, mostly for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{
		products: NewMemoryProductRepository(),
		users:    NewMemoryUserRepository(),
	}
}

func (s *memoryStore) Products() ProductRepository { return s.products }
func (s *memoryStore) Users() UserRepository       { return s.users }
func (s *memoryStore) Close() error                { return nil }
