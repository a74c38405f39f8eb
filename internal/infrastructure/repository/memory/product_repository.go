package memory

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is an in-memory implementation of domain.ProductRepository and
// domain.CartRepository. Products and cart share one lock so that stock
// reservations are atomic with cart changes.
type Store struct {
	mu            sync.RWMutex
	products      map[int64]*domain.Product
	items         []*cartLine
	nextProductID int64
	nextItemID    int64
	tracer        trace.Tracer
	logger        *slog.Logger
}

type cartLine struct {
	id        int64
	productID int64
	quantity  int
}

// NewStore creates a new in-memory store
func NewStore(tracer trace.Tracer, logger *slog.Logger) *Store {
	return &Store{
		products:      make(map[int64]*domain.Product),
		nextProductID: 1,
		nextItemID:    1,
		tracer:        tracer,
		logger:        logger,
	}
}

// Create stores a new product and assigns its id
func (r *Store) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByNameLocked(product.Name, 0) != nil {
		span.RecordError(domain.ErrDuplicateProduct)
		span.SetStatus(codes.Error, "Duplicate product name")
		return domain.ErrDuplicateProduct
	}

	product.ID = r.nextProductID
	r.nextProductID++
	stored := *product
	r.products[product.ID] = &stored

	span.SetAttributes(
		attribute.Int64("product.id", product.ID),
		attribute.String("product.name", product.Name),
	)

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.Int64("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return nil
}

// Update replaces a stored product
func (r *Store) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", product.ID))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	if r.findByNameLocked(product.Name, product.ID) != nil {
		span.RecordError(domain.ErrDuplicateProduct)
		span.SetStatus(codes.Error, "Duplicate product name")
		return domain.ErrDuplicateProduct
	}

	stored := *product
	r.products[product.ID] = &stored

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.Int64("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return nil
}

// Delete removes a product and any cart lines that reference it
func (r *Store) Delete(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	delete(r.products, id)
	r.items = slices.DeleteFunc(r.items, func(l *cartLine) bool { return l.productID == id })

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// FindByID retrieves a product by ID
func (r *Store) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.Int64("product_id", id),
		)
		return nil, domain.ErrProductNotFound
	}

	r.logger.DebugContext(ctx, "Product found in repository",
		slog.Int64("product_id", id),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product found")
	found := *product
	return &found, nil
}

// FindByName retrieves a product by exact name
func (r *Store) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindByName")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	product := r.findByNameLocked(name, 0)
	if product == nil {
		span.SetStatus(codes.Error, "Product not found")
		return nil, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	found := *product
	return &found, nil
}

// FindAll retrieves all products ordered by id
func (r *Store) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		p := *product
		products = append(products, &p)
	}
	slices.SortFunc(products, func(a, b *domain.Product) int { return int(a.ID - b.ID) })

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.InfoContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// findByNameLocked matches names case-insensitively, skipping exceptID.
func (r *Store) findByNameLocked(name string, exceptID int64) *domain.Product {
	for id, p := range r.products {
		if id != exceptID && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}
