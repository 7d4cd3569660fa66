package repository

import (
	"context"
	"github.com/google/uuid"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"sort"
	"sync"
)

// ProductRepository is the catalog store. GetAll and GetLatest return
// products newest first by creation time.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]*domain.Product, error)
	GetLatest(ctx context.Context, limit int) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Add(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type memoryProductRepository struct {
	products []*domain.Product
	mutex    sync.RWMutex
}

func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{}
}

func (r *memoryProductRepository) GetAll(ctx context.Context) ([]*domain.Product, error) {
	return r.GetLatest(ctx, 0)
}

func (r *memoryProductRepository) GetLatest(ctx context.Context, limit int) ([]*domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	// reverse insertion order first so equal timestamps keep the newest on top
	products := make([]*domain.Product, 0, len(r.products))
	for i := len(r.products) - 1; i >= 0; i-- {
		p := *r.products[i]
		products = append(products, &p)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})

	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (r *memoryProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, product := range r.products {
		if product.ID == id {
			p := *product
			return &p, nil
		}
	}

	return nil, domain.ErrProductNotFound
}

func (r *memoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, p := range r.products {
		if p.ID == product.ID {
			stored := *product
			r.products[i] = &stored
			return nil
		}
	}

	return domain.ErrProductNotFound
}

func (r *memoryProductRepository) Add(ctx context.Context, product *domain.Product) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	product.ID = uuid.NewString()
	stored := *product
	r.products = append(r.products, &stored)
	return nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, product := range r.products {
		if product.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}

	return domain.ErrProductNotFound
}
