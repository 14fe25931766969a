package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"candyshop/internal/domain"
	categoryrepo "candyshop/internal/repository/category"
	productrepo "candyshop/internal/repository/product"
	publisherrepo "candyshop/internal/repository/publisher"
)

const (
	cacheKeyProducts   = "products"
	cacheKeyCategories = "categories"
	cacheKeyPublishers = "publishers"
)

// Service exposes the storefront catalog: products with price histories,
// categories with nested subcategories, and publishers. Hot list endpoints
// are served from a TTL cache; singleflight keeps a cold key from hitting
// the database once per concurrent reader.
type Service struct {
	products   productrepo.Repository
	categories categoryrepo.Repository
	publishers publisherrepo.Repository
	cache      *gocache.Cache
	sfg        singleflight.Group
	logger     zerolog.Logger
}

func New(products productrepo.Repository, categories categoryrepo.Repository, publishers publisherrepo.Repository, logger zerolog.Logger) *Service {
	return &Service{
		products:   products,
		categories: categories,
		publishers: publishers,
		cache:      gocache.New(30*time.Second, 5*time.Minute),
		logger:     logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.cache.Get(cacheKeyProducts); ok {
		return cached.([]domain.Product), nil
	}
	v, err, _ := s.sfg.Do(cacheKeyProducts, func() (interface{}, error) {
		products, err := s.products.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(cacheKeyProducts, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ProductsBySubCategory(ctx context.Context, subCategoryID string) ([]domain.Product, error) {
	return s.products.ListBySubCategory(ctx, subCategoryID)
}

func (s *Service) SearchProductsByName(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListProducts(ctx)
	}
	return s.products.SearchByName(ctx, query)
}

func (s *Service) SearchProductsByPrice(ctx context.Context, minPrice, maxPrice int64) ([]domain.Product, error) {
	if minPrice < 0 || maxPrice < minPrice {
		return nil, fmt.Errorf("%w: invalid price range", domain.ErrValidation)
	}
	return s.products.SearchByPrice(ctx, minPrice, maxPrice)
}

// CurrentPrice resolves a product's live catalog price. The cart uses this
// as its lookup under the live pricing policy.
func (s *Service) CurrentPrice(ctx context.Context, productID string) (int64, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p.CurrentPrice == nil {
		return 0, fmt.Errorf("product %s has no price", productID)
	}
	return p.CurrentPrice.NewPrice, nil
}

type ProductInput struct {
	Name          string `json:"productName"`
	Description   string `json:"description"`
	ImageURL      string `json:"image"`
	SubCategoryID string `json:"subCategoryId"`
	PublisherID   string `json:"publisherId"`
	Price         int64  `json:"price"`
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validateProductInput(in, true); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetSubCategory(ctx, in.SubCategoryID); err != nil {
		return nil, fmt.Errorf("%w: unknown subcategory", domain.ErrValidation)
	}
	created, err := s.products.Create(ctx, domain.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		SubCategoryID: in.SubCategoryID,
		PublisherID:   in.PublisherID,
	}, in.Price)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyProducts)
	return created, nil
}

// UpdateProduct rewrites the product row and, when the price changed,
// appends a price-history entry instead of editing the old one.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := validateProductInput(in, false); err != nil {
		return nil, err
	}
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.products.Update(ctx, domain.Product{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		SubCategoryID: in.SubCategoryID,
		PublisherID:   in.PublisherID,
	})
	if err != nil {
		return nil, err
	}

	if in.Price > 0 && (existing.CurrentPrice == nil || existing.CurrentPrice.NewPrice != in.Price) {
		ph, err := s.products.AppendPrice(ctx, id, in.Price)
		if err != nil {
			return nil, err
		}
		updated.CurrentPrice = ph
		s.logger.Info().Str("product_id", id).Int64("price", in.Price).Msg("price changed")
	}

	s.cache.Delete(cacheKeyProducts)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyProducts)
	return nil
}

func (s *Service) PriceHistories(ctx context.Context, productID string) ([]domain.PriceHistory, error) {
	return s.products.PriceHistories(ctx, productID)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if cached, ok := s.cache.Get(cacheKeyCategories); ok {
		return cached.([]domain.Category), nil
	}
	v, err, _ := s.sfg.Do(cacheKeyCategories, func() (interface{}, error) {
		categories, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(cacheKeyCategories, categories)
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Category), nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name required", domain.ErrValidation)
	}
	created, err := s.categories.Create(ctx, domain.Category{Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyCategories)
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name required", domain.ErrValidation)
	}
	updated, err := s.categories.Update(ctx, domain.Category{ID: id, Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyCategories)
	return updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyCategories)
	return nil
}

func (s *Service) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	return s.categories.ListSubCategories(ctx, categoryID)
}

func (s *Service) GetSubCategory(ctx context.Context, id string) (*domain.SubCategory, error) {
	return s.categories.GetSubCategory(ctx, id)
}

func (s *Service) CreateSubCategory(ctx context.Context, categoryID, name string) (*domain.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subcategory name required", domain.ErrValidation)
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("%w: unknown category", domain.ErrValidation)
	}
	created, err := s.categories.CreateSubCategory(ctx, domain.SubCategory{CategoryID: categoryID, Name: name})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyCategories)
	return created, nil
}

func (s *Service) UpdateSubCategory(ctx context.Context, id, name string) (*domain.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subcategory name required", domain.ErrValidation)
	}
	updated, err := s.categories.UpdateSubCategory(ctx, domain.SubCategory{ID: id, Name: name})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyCategories)
	return updated, nil
}

func (s *Service) DeleteSubCategory(ctx context.Context, id string) error {
	if err := s.categories.DeleteSubCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyCategories)
	return nil
}

func (s *Service) ListPublishers(ctx context.Context) ([]domain.Publisher, error) {
	if cached, ok := s.cache.Get(cacheKeyPublishers); ok {
		return cached.([]domain.Publisher), nil
	}
	v, err, _ := s.sfg.Do(cacheKeyPublishers, func() (interface{}, error) {
		publishers, err := s.publishers.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(cacheKeyPublishers, publishers)
		return publishers, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Publisher), nil
}

func (s *Service) CreatePublisher(ctx context.Context, name string) (*domain.Publisher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: publisher name required", domain.ErrValidation)
	}
	created, err := s.publishers.Create(ctx, domain.Publisher{Name: name})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cacheKeyPublishers)
	return created, nil
}

func (s *Service) DeletePublisher(ctx context.Context, id string) error {
	if err := s.publishers.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(cacheKeyPublishers)
	return nil
}

func validateProductInput(in ProductInput, priceRequired bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name required", domain.ErrValidation)
	}
	if in.SubCategoryID == "" {
		return fmt.Errorf("%w: subcategory required", domain.ErrValidation)
	}
	if priceRequired && in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	if !priceRequired && in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}
