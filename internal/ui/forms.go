package ui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice    = errors.New("Price must be a number.")
	ErrInvalidStock    = errors.New("Stock must be a whole number.")
	ErrInvalidQuantity = errors.New("Quantity must be a whole number.")
	ErrInvalidID       = errors.New("Invalid id.")
)

// ParseProductForm reads the product dialog fields. Text fields are
// trimmed; price and stock are converted from their text inputs.
func ParseProductForm(form url.Values) (domain.Product, error) {
	p := domain.Product{
		Name:        strings.TrimSpace(form.Get("name")),
		Description: strings.TrimSpace(form.Get("description")),
	}

	rawPrice := strings.TrimPrefix(strings.TrimSpace(form.Get("price")), "$")
	price, err := decimal.NewFromString(rawPrice)
	if err != nil || price.IsNegative() {
		return domain.Product{}, ErrInvalidPrice
	}
	p.Price = price

	stock, err := strconv.Atoi(strings.TrimSpace(form.Get("stock")))
	if err != nil || stock < 0 {
		return domain.Product{}, ErrInvalidStock
	}
	p.Stock = stock

	return p, nil
}

// DraftFromForm captures the product dialog fields untouched, for showing
// them again when the submit is rejected.
func DraftFromForm(form url.Values) domain.ProductDraft {
	return domain.ProductDraft{
		Name:        form.Get("name"),
		Description: form.Get("description"),
		Price:       form.Get("price"),
		Stock:       form.Get("stock"),
	}
}

// ParseQuantity reads the quantity a cart line button submits.
func ParseQuantity(form url.Values) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(form.Get("quantity")))
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

// ParseID reads a positive integer id from a path or form value.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
