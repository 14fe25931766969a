package publisher

import (
	"context"

	"candyshop/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Publisher, error)
	Create(ctx context.Context, p domain.Publisher) (*domain.Publisher, error)
	Delete(ctx context.Context, id string) error
}
