package repository

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMongoStore(t *testing.T) Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	db := "shop_test_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	s, err := OpenMongo(context.Background(), uri, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func stores() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
		"mongo":  newMongoStore,
	}
}

func newProduct(name string, price float64, created time.Time) *domain.Product {
	return &domain.Product{
		Name:      name,
		Price:     price,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestProductRepository(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("AddAssignsUniqueIDs", func(t *testing.T) {
				repo := open(t).Products()
				now := time.Now().UTC()

				a := newProduct("Lip Balm", 9.99, now)
				b := newProduct("Face Cream", 19.5, now)
				require.NoError(t, repo.Add(ctx, a))
				require.NoError(t, repo.Add(ctx, b))

				assert.NotEmpty(t, a.ID)
				assert.NotEmpty(t, b.ID)
				assert.NotEqual(t, a.ID, b.ID)
			})

			t.Run("GetByIDRoundTrip", func(t *testing.T) {
				repo := open(t).Products()
				now := time.Now().UTC().Truncate(time.Millisecond)

				p := newProduct("Lip Balm", 9.99, now)
				p.Description = "soft"
				p.Image = "1700000000.png"
				p.ImageID = "1700000000.png"
				require.NoError(t, repo.Add(ctx, p))

				got, err := repo.GetByID(ctx, p.ID)
				require.NoError(t, err)
				assert.Equal(t, p.ID, got.ID)
				assert.Equal(t, "Lip Balm", got.Name)
				assert.Equal(t, "soft", got.Description)
				assert.Equal(t, 9.99, got.Price)
				assert.Equal(t, "1700000000.png", got.Image)
				assert.Equal(t, "1700000000.png", got.ImageID)
				assert.True(t, now.Equal(got.CreatedAt), "created %s != %s", got.CreatedAt, now)
			})

			t.Run("GetByIDUnknown", func(t *testing.T) {
				repo := open(t).Products()
				_, err := repo.GetByID(ctx, "000000000000000000000000")
				assert.ErrorIs(t, err, domain.ErrProductNotFound)

				_, err = repo.GetByID(ctx, "not-an-id")
				assert.ErrorIs(t, err, domain.ErrProductNotFound)
			})

			t.Run("ListNewestFirst", func(t *testing.T) {
				repo := open(t).Products()
				base := time.Now().UTC().Truncate(time.Millisecond)

				oldest := newProduct("oldest", 1, base.Add(-2*time.Hour))
				newest := newProduct("newest", 3, base)
				middle := newProduct("middle", 2, base.Add(-time.Hour))
				for _, p := range []*domain.Product{oldest, newest, middle} {
					require.NoError(t, repo.Add(ctx, p))
				}

				// updating the oldest must not move it
				oldest.Name = "oldest renamed"
				oldest.UpdatedAt = base.Add(time.Hour)
				require.NoError(t, repo.Update(ctx, oldest))

				all, err := repo.GetAll(ctx)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, []string{"newest", "middle", "oldest renamed"}, names(all))

				latest, err := repo.GetLatest(ctx, 2)
				require.NoError(t, err)
				assert.Equal(t, []string{"newest", "middle"}, names(latest))
			})

			t.Run("ListEmpty", func(t *testing.T) {
				repo := open(t).Products()
				all, err := repo.GetAll(ctx)
				require.NoError(t, err)
				assert.NotNil(t, all)
				assert.Empty(t, all)
			})

			t.Run("UpdateUnknown", func(t *testing.T) {
				repo := open(t).Products()
				p := newProduct("ghost", 1, time.Now().UTC())
				p.ID = "000000000000000000000000"
				assert.ErrorIs(t, repo.Update(ctx, p), domain.ErrProductNotFound)
			})

			t.Run("DeleteTwice", func(t *testing.T) {
				repo := open(t).Products()
				p := newProduct("Lip Balm", 9.99, time.Now().UTC())
				require.NoError(t, repo.Add(ctx, p))

				require.NoError(t, repo.Delete(ctx, p.ID))
				_, err := repo.GetByID(ctx, p.ID)
				assert.ErrorIs(t, err, domain.ErrProductNotFound)
				assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrProductNotFound)
			})
		})
	}
}

func TestUserRepository(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t).Users()
			now := time.Now().UTC()

			u := &domain.User{Email: " A@X.com ", PasswordHash: "hash", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
			require.NoError(t, repo.Add(ctx, u))
			assert.NotEmpty(t, u.ID)
			assert.Equal(t, "a@x.com", u.Email)

			got, err := repo.GetByEmail(ctx, "a@x.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
			assert.Equal(t, "hash", got.PasswordHash)
			assert.Equal(t, domain.RoleAdmin, got.Role)

			dup := &domain.User{Email: "a@x.com", PasswordHash: "other", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
			assert.ErrorIs(t, repo.Add(ctx, dup), domain.ErrConflict)

			_, err = repo.GetByEmail(ctx, "nobody@x.com")
			assert.ErrorIs(t, err, domain.ErrUserNotFound)
		})
	}
}

func TestDetectKind(t *testing.T) {
	testCases := []struct {
		url  string
		kind Kind
	}{
		{"", KindMemory},
		{"   ", KindMemory},
		{"mongodb://localhost:27017", KindMongo},
		{"mongodb+srv://cluster.example.net", KindMongo},
		{"sqlite:///var/lib/shop.db", KindSQLite},
		{"shop.db", KindSQLite},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.kind, DetectKind(tc.url))
		})
	}
}

func names(products []*domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}
