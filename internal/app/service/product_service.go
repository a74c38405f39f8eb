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

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.ProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", req.Name),
		attribute.String("product.price", req.Price.String()),
		attribute.Int("product.stock", req.Stock),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", req.Name),
		slog.String("price", req.Price.String()),
	)

	product, err := domain.NewProduct(req.Name, req.Description, req.Price, req.Stock)
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Validation failed", err)
	}

	if _, err := s.repo.FindByName(ctx, product.Name); err == nil {
		return nil, s.fail(ctx, span, "create", "Duplicate product", domain.ErrDuplicateProduct)
	} else if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, s.fail(ctx, span, "create", "Failed to check product name", err)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.fail(ctx, span, "create", "Failed to store product", err)
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "read", "Product not found", err)
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// ListProducts retrieves all products
func (s *ProductService) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	s.logger.InfoContext(ctx, "Listing all products")

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", "Failed to retrieve products", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductResponseList(products), nil
}

// UpdateProduct replaces the product with the given id
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *dto.ProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, s.fail(ctx, span, "update", "Product not found", err)
	}

	product, err := domain.NewProduct(req.Name, req.Description, req.Price, req.Stock)
	if err != nil {
		return nil, s.fail(ctx, span, "update", "Validation failed", err)
	}
	product.ID = id

	if existing, err := s.repo.FindByName(ctx, product.Name); err == nil && existing.ID != id {
		return nil, s.fail(ctx, span, "update", "Duplicate product", domain.ErrDuplicateProduct)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, s.fail(ctx, span, "update", "Failed to store product", err)
	}

	s.record(ctx, "update", "success")
	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return dto.ToProductResponse(product), nil
}

// DeleteProduct removes a product and its cart lines
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, span, "delete", "Failed to delete product", err)
	}

	s.record(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)

	result := "failure"
	if errors.Is(err, domain.ErrProductNotFound) {
		result = "not_found"
		s.logger.WarnContext(ctx, status, slog.String("operation", operation))
	} else {
		s.logger.ErrorContext(ctx, status,
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}
	s.record(ctx, operation, result)
	return err
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
