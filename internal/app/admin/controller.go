// Package admin holds the root controller of the catalog admin page. The
// controller owns the page state, performs every catalog API call and
// applies each server response to that state.
package admin

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/catalogapi"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// CatalogAPI is the subset of the catalog REST API the controller uses.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetCart(ctx context.Context) (domain.Cart, error)
	AddCartItem(ctx context.Context, req domain.CartItemRequest) (domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int64, req domain.CartItemRequest) (domain.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error)
}

// Controller owns one session's admin page state.
type Controller struct {
	api        CatalogAPI
	tracer     trace.Tracer
	logger     *slog.Logger
	operations metric.Int64Counter

	loadOnce sync.Once

	mu    sync.Mutex
	state State
}

// NewController creates a controller with empty state.
func NewController(api CatalogAPI, tracer trace.Tracer, meter metric.Meter, logger *slog.Logger) *Controller {
	operations, _ := meter.Int64Counter(
		"admin.operations",
		metric.WithDescription("Total number of admin page operations"),
	)

	return &Controller{
		api:        api,
		tracer:     tracer,
		logger:     logger,
		operations: operations,
		state:      newState(),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// EnsureLoaded runs Load once for the lifetime of the controller. The load
// outlives the triggering request so a cancelled first request does not
// leave the session empty.
func (c *Controller) EnsureLoaded(ctx context.Context) {
	c.loadOnce.Do(func() {
		_ = c.Load(context.WithoutCancel(ctx))
	})
}

// Load fetches products and cart concurrently. Products are critical, the
// cart is best-effort.
func (c *Controller) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return c.LoadProducts(ctx, Critical) })
	g.Go(func() error { return c.LoadCart(ctx, BestEffort) })
	return g.Wait()
}

// LoadProducts replaces the product list with the server's.
func (c *Controller) LoadProducts(ctx context.Context, policy FetchPolicy) error {
	ctx, span := c.tracer.Start(ctx, "Controller.LoadProducts")
	defer span.End()

	products, err := c.api.ListProducts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		return c.readFailed(ctx, span, policy, "load_products", MsgLoadProductsFailed, err)
	}

	c.state.Products = products
	c.state.ProductsLoaded = true
	span.SetAttributes(attribute.Int("product.count", len(products)))
	c.succeeded(ctx, span, "load_products")
	return nil
}

// LoadCart replaces the cart with the server's.
func (c *Controller) LoadCart(ctx context.Context, policy FetchPolicy) error {
	ctx, span := c.tracer.Start(ctx, "Controller.LoadCart")
	defer span.End()

	cart, err := c.api.GetCart(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		return c.readFailed(ctx, span, policy, "load_cart", MsgLoadCartFailed, err)
	}

	c.state.Cart = cart
	c.succeeded(ctx, span, "load_cart")
	return nil
}

// AddProduct creates a product and appends the server's record.
func (c *Controller) AddProduct(ctx context.Context, p domain.Product) error {
	ctx, span := c.tracer.Start(ctx, "Controller.AddProduct")
	defer span.End()

	key := PendingAddProduct()
	if err := c.begin(ctx, span, key, "add_product"); err != nil {
		return err
	}
	created, err := c.api.CreateProduct(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Pending, key)

	if err != nil {
		return c.writeFailed(ctx, span, "add_product", catalogapi.ErrorMessage(err, MsgAddProductFailed), err)
	}

	c.state.Products = append(c.state.Products, created)
	if _, ok := c.state.Dialog.(domain.AddDialog); ok {
		c.state.Dialog = domain.NoDialog{}
	}
	span.SetAttributes(attribute.Int64("product.id", created.ID))
	c.succeeded(ctx, span, "add_product")
	return nil
}

// EditProduct updates a product and replaces the entry with the same id.
func (c *Controller) EditProduct(ctx context.Context, p domain.Product) error {
	ctx, span := c.tracer.Start(ctx, "Controller.EditProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", p.ID))

	key := PendingEditProduct(p.ID)
	if err := c.begin(ctx, span, key, "edit_product"); err != nil {
		return err
	}
	updated, err := c.api.UpdateProduct(ctx, p)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Pending, key)

	if err != nil {
		return c.writeFailed(ctx, span, "edit_product", catalogapi.ErrorMessage(err, MsgUpdateProductFailed), err)
	}

	if i := c.state.productIndex(updated.ID); i >= 0 {
		c.state.Products[i] = updated
	}
	if _, ok := c.state.Dialog.(domain.EditDialog); ok {
		c.state.Dialog = domain.NoDialog{}
	}
	c.succeeded(ctx, span, "edit_product")
	return nil
}

// DeleteProduct deletes a product. The product leaves the list once the
// request completes, whatever its outcome; failures are only logged.
func (c *Controller) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := c.tracer.Start(ctx, "Controller.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	key := PendingDeleteProduct(id)
	if err := c.begin(ctx, span, key, "delete_product"); err != nil {
		return err
	}
	err := c.api.DeleteProduct(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Pending, key)

	if err != nil {
		span.RecordError(err)
		c.logger.WarnContext(ctx, "Delete product failed, removing locally anyway",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	if i := c.state.productIndex(id); i >= 0 {
		c.state.Products = slices.Delete(c.state.Products, i, i+1)
	}
	if _, ok := c.state.Dialog.(domain.DeleteDialog); ok {
		c.state.Dialog = domain.NoDialog{}
	}
	c.succeeded(ctx, span, "delete_product")
	return nil
}

// AddToCart reserves one unit of a product.
func (c *Controller) AddToCart(ctx context.Context, productID int64) error {
	ctx, span := c.tracer.Start(ctx, "Controller.AddToCart")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID))

	c.mu.Lock()
	stock, ok := c.state.DisplayedStock(productID)
	switch {
	case !ok:
		defer c.mu.Unlock()
		return c.rejected(ctx, span, "add_to_cart", MsgProductNotFound, domain.ErrProductNotFound)
	case stock <= 0:
		defer c.mu.Unlock()
		return c.rejected(ctx, span, "add_to_cart", MsgOutOfStock, domain.ErrProductOutOfStock)
	}
	c.mu.Unlock()

	key := PendingAddToCart(productID)
	if err := c.begin(ctx, span, key, "add_to_cart"); err != nil {
		return err
	}
	cart, err := c.api.AddCartItem(ctx, domain.CartItemRequest{ProductID: productID, Quantity: 1})

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Pending, key)

	if err != nil {
		return c.writeFailed(ctx, span, "add_to_cart", catalogapi.ErrorMessage(err, MsgAddToCartFailed), err)
	}

	c.state.Cart = cart
	c.adjustStock(productID, -1)
	c.succeeded(ctx, span, "add_to_cart")
	return nil
}

// UpdateCartItem sets a cart line's quantity; zero or less removes it.
// Displayed stock moves by the change the server actually applied.
func (c *Controller) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	ctx, span := c.tracer.Start(ctx, "Controller.UpdateCartItem")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("cart_item.id", itemID),
		attribute.Int("cart_item.quantity", quantity),
	)

	c.mu.Lock()
	item, ok := c.state.Cart.Item(itemID)
	if !ok {
		defer c.mu.Unlock()
		return c.rejected(ctx, span, "update_cart_item", MsgCartItemNotFound, domain.ErrCartItemNotFound)
	}
	productID := item.Product.ID

	if quantity > 0 {
		diff := quantity - item.Quantity
		available, known := c.state.DisplayedStock(productID)
		if !known {
			available = item.Product.Stock
		}
		if diff > 0 && diff > available {
			defer c.mu.Unlock()
			return c.rejected(ctx, span, "update_cart_item", MsgNotEnoughStock, domain.ErrNotEnoughStock)
		}
	}
	c.mu.Unlock()

	key := PendingCartItem(itemID)
	if err := c.begin(ctx, span, key, "update_cart_item"); err != nil {
		return err
	}

	var (
		cart domain.Cart
		err  error
	)
	if quantity <= 0 {
		cart, err = c.api.RemoveCartItem(ctx, itemID)
	} else {
		cart, err = c.api.UpdateCartItem(ctx, itemID, domain.CartItemRequest{ProductID: productID, Quantity: quantity})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state.Pending, key)

	if err != nil {
		return c.writeFailed(ctx, span, "update_cart_item", catalogapi.ErrorMessage(err, MsgUpdateCartFailed), err)
	}

	// The line may have changed while the request was in flight.
	before := 0
	if current, ok := c.state.Cart.Item(itemID); ok {
		before = current.Quantity
	}
	after := 0
	if updated, ok := cart.Item(itemID); ok {
		after = updated.Quantity
	}
	applied := after - before
	c.state.Cart = cart
	c.adjustStock(productID, -applied)
	span.SetAttributes(attribute.Int("cart_item.applied_delta", applied))
	c.succeeded(ctx, span, "update_cart_item")
	return nil
}

// OpenAdd shows the blank create form.
func (c *Controller) OpenAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dialog = domain.AddDialog{}
}

// OpenEdit shows the edit form for a product.
func (c *Controller) OpenEdit(id int64) error {
	return c.openFor(id, func(p domain.Product) domain.Dialog { return domain.EditDialog{Product: p} })
}

// OpenDelete shows the delete confirmation for a product.
func (c *Controller) OpenDelete(id int64) error {
	return c.openFor(id, func(p domain.Product) domain.Dialog { return domain.DeleteDialog{Product: p} })
}

// OpenDetails shows a product read-only.
func (c *Controller) OpenDetails(id int64) error {
	return c.openFor(id, func(p domain.Product) domain.Dialog { return domain.DetailsDialog{Product: p} })
}

// CloseDialog closes whatever dialog is open.
func (c *Controller) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Dialog = domain.NoDialog{}
}

// SetSearch stores the search text.
func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Search = query
}

// KeepDraft stores what the user submitted on the form it came from, so
// the form reopens with it after a rejected submit. productID is 0 for the
// create form. It does nothing once that form has closed.
func (c *Controller) KeepDraft(productID int64, draft domain.ProductDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d := c.state.Dialog.(type) {
	case domain.AddDialog:
		if productID == 0 {
			c.state.Dialog = domain.AddDialog{Draft: &draft}
		}
	case domain.EditDialog:
		if d.Product.ID == productID {
			c.state.Dialog = domain.EditDialog{Product: d.Product, Draft: &draft}
		}
	}
}

// Notify shows a notice for a failure detected outside the controller,
// such as an unparseable form.
func (c *Controller) Notify(action, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notice = &Notice{Action: action, Message: message}
}

// DismissNotice clears the notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Notice = nil
}

func (c *Controller) openFor(id int64, dialog func(domain.Product) domain.Dialog) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.state.productIndex(id)
	if i < 0 {
		return domain.ErrProductNotFound
	}
	c.state.Dialog = dialog(c.state.Products[i])
	return nil
}

// adjustStock moves displayed stock by delta. Caller holds mu.
func (c *Controller) adjustStock(productID int64, delta int) {
	i := c.state.productIndex(productID)
	if i < 0 {
		return
	}
	c.state.Products[i].Stock = max(c.state.Products[i].Stock+delta, 0)
}

// begin marks key in flight, or rejects a duplicate request.
func (c *Controller) begin(ctx context.Context, span trace.Span, key, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Pending[key] {
		c.logger.InfoContext(ctx, "Duplicate request ignored", slog.String("key", key))
		c.record(ctx, op, "in_flight")
		span.SetStatus(codes.Error, "Request in flight")
		return ErrRequestInFlight
	}
	c.state.Pending[key] = true
	return nil
}

// readFailed applies policy to a failed read. Caller holds mu.
func (c *Controller) readFailed(ctx context.Context, span trace.Span, policy FetchPolicy, op, fallback string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Read failed")
	c.record(ctx, op, "failure")

	if policy == BestEffort {
		c.logger.WarnContext(ctx, "Best-effort read failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return nil
	}

	c.logger.ErrorContext(ctx, "Read failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	c.state.Notice = &Notice{Action: op, Message: catalogapi.ErrorMessage(err, fallback)}
	return err
}

// writeFailed surfaces a failed mutation. Caller holds mu.
func (c *Controller) writeFailed(ctx context.Context, span trace.Span, op, message string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	c.record(ctx, op, "failure")

	c.logger.ErrorContext(ctx, "Request failed",
		slog.String("operation", op),
		slog.String("message", message),
		slog.String("error", err.Error()),
	)
	c.state.Notice = &Notice{Action: op, Message: message}
	return err
}

// rejected surfaces a client-side validation failure. Caller holds mu.
func (c *Controller) rejected(ctx context.Context, span trace.Span, op, message string, err error) error {
	span.SetStatus(codes.Error, message)
	c.record(ctx, op, "rejected")

	c.logger.InfoContext(ctx, "Request rejected before sending",
		slog.String("operation", op),
		slog.String("reason", message),
	)
	c.state.Notice = &Notice{Action: op, Message: message}
	return err
}

func (c *Controller) succeeded(ctx context.Context, span trace.Span, op string) {
	c.record(ctx, op, "success")
	span.SetStatus(codes.Ok, "")
}

func (c *Controller) record(ctx context.Context, op, result string) {
	c.operations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("result", result),
		),
	)
}
