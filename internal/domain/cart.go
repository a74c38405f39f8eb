package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCartItemNotFound   = errors.New("Cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrNotEnoughStock     = errors.New("Not enough stock")
	ErrProductOutOfStock  = errors.New("product is out of stock")
	ErrInvalidCartProduct = errors.New("product_id is required")
)

// CartItem is one line of the cart. Product is a snapshot taken when the
// line was last written.
type CartItem struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the session's cart.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Total sums every line total.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Item looks up a line by its id.
func (c Cart) Item(id int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// QuantityOf sums the quantities reserved for a product across all lines.
func (c Cart) QuantityOf(productID int64) int {
	n := 0
	for _, item := range c.Items {
		if item.Product.ID == productID {
			n += item.Quantity
		}
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartItemRequest is the body of cart item writes.
type CartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
