package memory

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Cart returns the cart with current product snapshots
func (r *Store) Cart(ctx context.Context) (*domain.Cart, error) {
	_, span := r.tracer.Start(ctx, "CartRepository.Cart")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart := r.cartLocked()
	span.SetAttributes(attribute.Int("cart.items", len(cart.Items)))
	span.SetStatus(codes.Ok, "Cart retrieved")
	return cart, nil
}

// AddItem adds quantity units of a product, merging into an existing line
func (r *Store) AddItem(ctx context.Context, productID int64, quantity int) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", quantity),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	if product.Stock < quantity {
		span.RecordError(domain.ErrNotEnoughStock)
		span.SetStatus(codes.Error, "Not enough stock")
		return domain.ErrNotEnoughStock
	}

	product.Stock -= quantity
	if i := slices.IndexFunc(r.items, func(l *cartLine) bool { return l.productID == productID }); i >= 0 {
		r.items[i].quantity += quantity
	} else {
		r.items = append(r.items, &cartLine{id: r.nextItemID, productID: productID, quantity: quantity})
		r.nextItemID++
	}

	r.logger.InfoContext(ctx, "Item added to cart",
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
		slog.Int("stock_left", product.Stock),
	)

	span.SetStatus(codes.Ok, "Item added")
	return nil
}

// SetQuantity changes a line's quantity, reserving or releasing the difference
func (r *Store) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.SetQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_item.id", itemID),
		attribute.Int("quantity", quantity),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	line := r.lineLocked(itemID)
	if line == nil {
		span.RecordError(domain.ErrCartItemNotFound)
		span.SetStatus(codes.Error, "Cart item not found")
		return domain.ErrCartItemNotFound
	}
	product := r.products[line.productID]

	diff := quantity - line.quantity
	if diff > product.Stock {
		span.RecordError(domain.ErrNotEnoughStock)
		span.SetStatus(codes.Error, "Not enough stock")
		return domain.ErrNotEnoughStock
	}

	product.Stock -= diff
	line.quantity = quantity

	r.logger.InfoContext(ctx, "Cart item quantity changed",
		slog.Int64("cart_item_id", itemID),
		slog.Int("quantity", quantity),
		slog.Int("delta", diff),
	)

	span.SetStatus(codes.Ok, "Quantity changed")
	return nil
}

// RemoveItem deletes a line and returns its units to stock
func (r *Store) RemoveItem(ctx context.Context, itemID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.RemoveItem")
	defer span.End()

	span.SetAttributes(attribute.Int64("cart_item.id", itemID))

	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.items, func(l *cartLine) bool { return l.id == itemID })
	if i < 0 {
		span.RecordError(domain.ErrCartItemNotFound)
		span.SetStatus(codes.Error, "Cart item not found")
		return domain.ErrCartItemNotFound
	}

	line := r.items[i]
	if product, ok := r.products[line.productID]; ok {
		product.Stock += line.quantity
	}
	r.items = slices.Delete(r.items, i, i+1)

	r.logger.InfoContext(ctx, "Cart item removed",
		slog.Int64("cart_item_id", itemID),
		slog.Int("released", line.quantity),
	)

	span.SetStatus(codes.Ok, "Item removed")
	return nil
}

func (r *Store) lineLocked(itemID int64) *cartLine {
	for _, l := range r.items {
		if l.id == itemID {
			return l
		}
	}
	return nil
}

func (r *Store) cartLocked() *domain.Cart {
	cart := &domain.Cart{Items: make([]domain.CartItem, 0, len(r.items))}
	for _, l := range r.items {
		product, ok := r.products[l.productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:       l.id,
			Product:  *product,
			Quantity: l.quantity,
		})
	}
	return cart
}
