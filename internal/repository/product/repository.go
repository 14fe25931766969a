package product

import (
	"context"

	"candyshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListBySubCategory(ctx context.Context, subCategoryID string) ([]domain.Product, error)
	SearchByName(ctx context.Context, query string) ([]domain.Product, error)
	SearchByPrice(ctx context.Context, minPrice, maxPrice int64) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product, price int64) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	AppendPrice(ctx context.Context, productID string, newPrice int64) (*domain.PriceHistory, error)
	PriceHistories(ctx context.Context, productID string) ([]domain.PriceHistory, error)
}
