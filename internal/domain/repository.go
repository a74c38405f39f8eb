package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("Product not registered")
)

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
}

// CartRepository defines the contract for cart storage. Every write
// reserves or releases product stock in the same step as the cart change.
type CartRepository interface {
	Cart(ctx context.Context) (*Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) error
	SetQuantity(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
}
