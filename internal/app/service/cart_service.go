package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mrops-br/catalog-admin/internal/app/dto"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CartService handles cart use cases. Every write answers with the whole
// cart so clients can replace their copy.
type CartService struct {
	repo           domain.CartRepository
	tracer         trace.Tracer
	logger         *slog.Logger
	cartOperations metric.Int64Counter
}

// NewCartService creates a new cart service
func NewCartService(
	repo domain.CartRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CartService {
	cartOperations, _ := meter.Int64Counter(
		"cart.operations",
		metric.WithDescription("Total number of cart operations"),
	)

	return &CartService{
		repo:           repo,
		tracer:         tracer,
		logger:         logger,
		cartOperations: cartOperations,
	}
}

// GetCart returns the current cart
func (s *CartService) GetCart(ctx context.Context) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	return s.respond(ctx, span, "read")
}

// AddItem puts quantity units of a product in the cart
func (s *CartService) AddItem(ctx context.Context, req *dto.CartItemRequest) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("quantity", req.Quantity),
	)

	if req.ProductID <= 0 {
		return nil, s.fail(ctx, span, "add", domain.ErrInvalidCartProduct)
	}
	if req.Quantity <= 0 {
		return nil, s.fail(ctx, span, "add", domain.ErrInvalidQuantity)
	}

	if err := s.repo.AddItem(ctx, req.ProductID, req.Quantity); err != nil {
		return nil, s.fail(ctx, span, "add", err)
	}

	s.logger.InfoContext(ctx, "Item added to cart",
		slog.Int64("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
	)
	return s.respond(ctx, span, "add")
}

// UpdateItem sets a line's quantity. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, itemID int64, req *dto.CartItemRequest) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_item.id", itemID),
		attribute.Int("quantity", req.Quantity),
	)

	var err error
	switch {
	case req.Quantity < 0:
		err = domain.ErrInvalidQuantity
	case req.Quantity == 0:
		err = s.repo.RemoveItem(ctx, itemID)
	default:
		err = s.repo.SetQuantity(ctx, itemID, req.Quantity)
	}
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	return s.respond(ctx, span, "update")
}

// RemoveItem deletes a line and releases its stock
func (s *CartService) RemoveItem(ctx context.Context, itemID int64) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(attribute.Int64("cart_item.id", itemID))

	if err := s.repo.RemoveItem(ctx, itemID); err != nil {
		return nil, s.fail(ctx, span, "remove", err)
	}

	return s.respond(ctx, span, "remove")
}

func (s *CartService) respond(ctx context.Context, span trace.Span, operation string) (*dto.CartResponse, error) {
	cart, err := s.repo.Cart(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}

	span.SetAttributes(attribute.Int("cart.items", len(cart.Items)))
	s.record(ctx, operation, "success")
	span.SetStatus(codes.Ok, "Cart "+operation+" succeeded")
	return dto.ToCartResponse(cart), nil
}

func (s *CartService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	result := "failure"
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCartItemNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrNotEnoughStock):
		result = "rejected"
	}

	s.logger.WarnContext(ctx, "Cart operation failed",
		slog.String("operation", operation),
		slog.String("result", result),
		slog.String("error", err.Error()),
	)
	s.record(ctx, operation, result)
	return err
}

func (s *CartService) record(ctx context.Context, operation, result string) {
	s.cartOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
