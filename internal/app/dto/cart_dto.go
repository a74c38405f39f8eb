package dto

import (
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
)

// CartItemRequest is the body of cart item writes. ProductID is required
// when adding and ignored when changing a quantity.
type CartItemRequest = domain.CartItemRequest

// CartItemResponse is one cart line
type CartItemResponse struct {
	ID       int64            `json:"id"`
	Product  *ProductResponse `json:"product"`
	Quantity int              `json:"quantity"`
}

// CartResponse is the whole cart. Total is informational.
type CartResponse struct {
	Items []*CartItemResponse `json:"items"`
	Total decimal.Decimal     `json:"total"`
}

// ToCartResponse converts a domain Cart to CartResponse
func ToCartResponse(c *domain.Cart) *CartResponse {
	resp := &CartResponse{
		Items: make([]*CartItemResponse, len(c.Items)),
		Total: c.Total(),
	}
	for i, item := range c.Items {
		resp.Items[i] = &CartItemResponse{
			ID:       item.ID,
			Product:  ToProductResponse(&item.Product),
			Quantity: item.Quantity,
		}
	}
	return resp
}
