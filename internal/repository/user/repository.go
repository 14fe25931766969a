package user

import (
	"context"

	"candyshop/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	AddAddress(ctx context.Context, a domain.Address) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}
