package category

import (
	"context"

	"candyshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, c domain.Category) (*domain.Category, error)
	Update(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
	ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error)
	GetSubCategory(ctx context.Context, id string) (*domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, sc domain.SubCategory) (*domain.SubCategory, error)
	UpdateSubCategory(ctx context.Context, sc domain.SubCategory) (*domain.SubCategory, error)
	DeleteSubCategory(ctx context.Context, id string) error
}
