package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price must be positive")
	ErrInvalidProductStock = errors.New("product stock cannot be negative")
	ErrDuplicateProduct    = errors.New("Product already registered")
)

// Prices travel as JSON numbers, matching the catalog API.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents the product entity
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// NewProduct creates a new product with validation. The id is assigned by storage.
func NewProduct(name, description string, price decimal.Decimal, stock int) (*Product, error) {
	product := &Product{
		Name:        strings.TrimSpace(name),
		Description: description,
		Price:       price,
		Stock:       stock,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProductName
	}
	if !p.Price.IsPositive() {
		return ErrInvalidProductPrice
	}
	if p.Stock < 0 {
		return ErrInvalidProductStock
	}
	return nil
}

// MatchesName reports whether the product name contains query, ignoring case.
func (p Product) MatchesName(query string) bool {
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(query))
}
