package service

import (
	"context"
	"fmt"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/blob"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/events"
	"github.com/saddiabu4/telegram-web-app-backend/internal/metrics"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"time"
)

type ProductService interface {
	List(ctx context.Context) (Products, error)
	Latest(ctx context.Context, n int) (Products, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput, image *blob.Upload) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch, image *blob.Upload) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type Products []*domain.Product

type productService struct {
	repo       repository.ProductRepository
	blobs      blob.Store
	validation *domain.Validation
	eventBus   *events.EventBus[any]
	metrics    *metrics.Metrics
	logger     hclog.Logger
	now        func() time.Time
}

func NewProductService(
	repo repository.ProductRepository,
	blobs blob.Store,
	validation *domain.Validation,
	eventBus *events.EventBus[any],
	m *metrics.Metrics,
	logger hclog.Logger) ProductService {
	return &productService{
		repo:       repo,
		blobs:      blobs,
		validation: validation,
		eventBus:   eventBus,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) List(ctx context.Context) (Products, error) {
	s.logger.Debug("Getting all products")

	products, err := s.repo.GetAll(ctx)
	s.count("list", err)
	if err != nil {
		s.logger.Error("Unable to get products", "error", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) Latest(ctx context.Context, n int) (Products, error) {
	s.logger.Debug("Getting latest products", "limit", n)

	products, err := s.repo.GetLatest(ctx, n)
	s.count("latest", err)
	if err != nil {
		s.logger.Error("Unable to get latest products", "limit", n, "error", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	s.logger.Debug("Getting product by ID", "id", id)

	product, err := s.repo.GetByID(ctx, id)
	s.count("get", err)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, in domain.ProductInput, image *blob.Upload) (product *domain.Product, err error) {
	defer func() { s.count("create", err) }()

	if err := s.validation.Validate(in); err != nil {
		return nil, err
	}
	s.logger.Debug("Adding new product", "name", in.Name)

	now := s.now()
	product = &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var stored *blob.Object
	if image != nil {
		obj, err := s.blobs.Save(ctx, *image)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		stored = &obj
		product.Image = obj.Ref
		product.ImageID = obj.Key
	}

	if err := s.repo.Add(ctx, product); err != nil {
		s.logger.Error("Unable to add product", "name", product.Name, "error", err)
		if stored != nil {
			s.discardBlob(ctx, stored.Key)
		}
		return nil, err
	}

	s.eventBus.Publish(events.ProductAdded{ProductID: product.ID, Name: product.Name, Price: product.Price})
	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, patch domain.ProductPatch, image *blob.Upload) (product *domain.Product, err error) {
	defer func() { s.count("update", err) }()

	s.logger.Debug("Updating product", "id", id)

	if err := s.validation.Validate(patch); err != nil {
		return nil, err
	}

	product, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := ""
	if product.HasImage() {
		oldKey = product.ImageKey()
	}

	patch.Apply(product)
	product.UpdatedAt = s.now()

	var stored *blob.Object
	if image != nil {
		obj, err := s.blobs.Save(ctx, *image)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		stored = &obj
		product.Image = obj.Ref
		product.ImageID = obj.Key
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Unable to update product", "id", id, "error", err)
		if stored != nil {
			s.discardBlob(ctx, stored.Key)
		}
		return nil, err
	}

	// the record points at the new image now, the old one is garbage
	if stored != nil && oldKey != "" && oldKey != stored.Key {
		s.discardBlob(ctx, oldKey)
	}

	s.eventBus.Publish(events.ProductUpdated{ProductID: product.ID, Name: product.Name, Price: product.Price})
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.count("delete", err) }()

	s.logger.Debug("Deleting product", "id", id)

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Unable to delete product", "id", id, "error", err)
		return err
	}

	if product.HasImage() {
		s.discardBlob(ctx, product.ImageKey())
	}

	s.eventBus.Publish(events.ProductDeleted{ProductID: id})
	return nil
}

// discardBlob deletes a blob nobody references any more. Failures leave an
// orphan behind and are only logged.
func (s *productService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("Unable to delete image", "key", key, "error", err)
		s.metrics.BlobDeleteErrs.Inc()
	}
}

func (s *productService) count(op string, err error) {
	s.metrics.ProductOps.WithLabelValues(op, metrics.Outcome(err)).Inc()
}
