package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(tracenoop.NewTracerProvider().Tracer("test"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seed(t *testing.T, s *Store, name string, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: decimal.NewFromInt(2), Stock: stock}
	if err := s.Create(context.Background(), p); err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	return p
}

func TestStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := seed(t, s, "Widget", 5)
	b := seed(t, s, "Gadget", 1)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}

	if err := s.Create(ctx, &domain.Product{Name: "widget"}); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Errorf("duplicate create err = %v", err)
	}

	b.Name = "Widget"
	if err := s.Update(ctx, b); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Errorf("rename onto existing name err = %v", err)
	}
	b.Name = "Gizmo"
	if err := s.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.FindByID(ctx, 2)
	if err != nil || got.Name != "Gizmo" {
		t.Errorf("FindByID = %+v, %v", got, err)
	}
	got.Name = "mutated"
	if again, _ := s.FindByID(ctx, 2); again.Name != "Gizmo" {
		t.Error("FindByID returned shared memory")
	}

	all, _ := s.FindAll(ctx)
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Errorf("FindAll = %+v", all)
	}

	if err := s.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindByID(ctx, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("FindByID after delete err = %v", err)
	}
	if err := s.Delete(ctx, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestStore_CartReservesStock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := seed(t, s, "Widget", 5)

	if err := s.AddItem(ctx, p.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(ctx, p.ID, 1); err != nil {
		t.Fatal(err)
	}

	cart, _ := s.Cart(ctx)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("cart = %+v", cart)
	}
	if cart.Items[0].Product.Stock != 3 {
		t.Errorf("stock = %d, want 3", cart.Items[0].Product.Stock)
	}

	itemID := cart.Items[0].ID
	if err := s.SetQuantity(ctx, itemID, 6); !errors.Is(err, domain.ErrNotEnoughStock) {
		t.Errorf("SetQuantity(6) err = %v", err)
	}
	if err := s.SetQuantity(ctx, itemID, 5); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindByID(ctx, p.ID); got.Stock != 0 {
		t.Errorf("stock = %d, want 0", got.Stock)
	}
	if err := s.AddItem(ctx, p.ID, 1); !errors.Is(err, domain.ErrNotEnoughStock) {
		t.Errorf("AddItem with no stock err = %v", err)
	}

	if err := s.SetQuantity(ctx, itemID, 1); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindByID(ctx, p.ID); got.Stock != 4 {
		t.Errorf("stock = %d, want 4", got.Stock)
	}

	if err := s.RemoveItem(ctx, itemID); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.FindByID(ctx, p.ID); got.Stock != 5 {
		t.Errorf("stock = %d, want 5", got.Stock)
	}
	if err := s.RemoveItem(ctx, itemID); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestStore_DeleteProductDropsCartLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seed(t, s, "Widget", 5)
	b := seed(t, s, "Gadget", 5)

	_ = s.AddItem(ctx, a.ID, 1)
	_ = s.AddItem(ctx, b.ID, 2)
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	cart, _ := s.Cart(ctx)
	if len(cart.Items) != 1 || cart.Items[0].Product.ID != b.ID {
		t.Errorf("cart = %+v", cart)
	}
	if err := s.AddItem(ctx, a.ID, 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("AddItem for deleted product err = %v", err)
	}
}
