package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/catalog-admin/internal/app/dto"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newServices(t *testing.T) (*ProductService, *CartService) {
	t.Helper()
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore(tracer, logger)
	return NewProductService(store, tracer, meter, logger), NewCartService(store, tracer, meter, logger)
}

func productReq(name, price string, stock int) *dto.ProductRequest {
	return &dto.ProductRequest{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func TestProductService_CreateValidation(t *testing.T) {
	products, _ := newServices(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *dto.ProductRequest
		wantErr error
	}{
		{"valid", productReq("Widget", "9.99", 5), nil},
		{"blank name", productReq("  ", "1", 1), domain.ErrInvalidProductName},
		{"zero price", productReq("Zero", "0", 1), domain.ErrInvalidProductPrice},
		{"negative stock", productReq("Neg", "1", -1), domain.ErrInvalidProductStock},
		{"duplicate", productReq("Widget", "2", 1), domain.ErrDuplicateProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := products.CreateProduct(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	products, _ := newServices(t)
	ctx := context.Background()

	a, _ := products.CreateProduct(ctx, productReq("Widget", "1", 1))
	b, _ := products.CreateProduct(ctx, productReq("Gadget", "1", 1))

	if _, err := products.UpdateProduct(ctx, b.ID, productReq("Widget", "3", 3)); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Errorf("rename onto existing err = %v", err)
	}
	updated, err := products.UpdateProduct(ctx, a.ID, productReq("Widget", "3", 7))
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if updated.ID != a.ID || updated.Stock != 7 {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := products.UpdateProduct(ctx, 99, productReq("X", "1", 1)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("update unknown err = %v", err)
	}

	if err := products.DeleteProduct(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := products.GetProductByID(ctx, a.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("get deleted err = %v", err)
	}
	list, _ := products.ListProducts(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCartService_Flow(t *testing.T) {
	products, cart := newServices(t)
	ctx := context.Background()
	p, _ := products.CreateProduct(ctx, productReq("Widget", "2.50", 2))

	resp, err := cart.AddItem(ctx, &dto.CartItemRequest{ProductID: p.ID, Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Product.Stock != 1 || !resp.Total.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("cart = %+v", resp)
	}
	itemID := resp.Items[0].ID

	if _, err := cart.UpdateItem(ctx, itemID, &dto.CartItemRequest{Quantity: 3}); !errors.Is(err, domain.ErrNotEnoughStock) {
		t.Errorf("over-reserve err = %v", err)
	}
	resp, err = cart.UpdateItem(ctx, itemID, &dto.CartItemRequest{Quantity: 2})
	if err != nil || resp.Items[0].Quantity != 2 || resp.Items[0].Product.Stock != 0 {
		t.Fatalf("update = %+v, %v", resp, err)
	}

	resp, err = cart.UpdateItem(ctx, itemID, &dto.CartItemRequest{Quantity: 0})
	if err != nil || len(resp.Items) != 0 {
		t.Fatalf("zero quantity should remove: %+v, %v", resp, err)
	}
	if got, _ := products.GetProductByID(ctx, p.ID); got.Stock != 2 {
		t.Errorf("stock after removal = %d, want 2", got.Stock)
	}

	if _, err := cart.RemoveItem(ctx, itemID); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Errorf("remove missing err = %v", err)
	}
	if _, err := cart.AddItem(ctx, &dto.CartItemRequest{ProductID: 42, Quantity: 1}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("add unknown err = %v", err)
	}
	if _, err := cart.AddItem(ctx, &dto.CartItemRequest{ProductID: p.ID}); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("add zero err = %v", err)
	}
}
