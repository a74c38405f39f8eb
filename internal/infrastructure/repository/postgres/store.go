// Package postgres stores products and the cart in PostgreSQL. Stock
// reservations run in one transaction with the cart change they belong to.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       NUMERIC(12,2) NOT NULL CHECK (price > 0),
	stock       INTEGER NOT NULL CHECK (stock >= 0)
);
CREATE UNIQUE INDEX IF NOT EXISTS products_name_key ON products (lower(name));
CREATE TABLE IF NOT EXISTS cart_items (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL UNIQUE REFERENCES products (id) ON DELETE CASCADE,
	quantity   INTEGER NOT NULL CHECK (quantity > 0)
);`

// Store implements domain.ProductRepository and domain.CartRepository.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, tracer trace.Tracer, logger *slog.Logger) *Store {
	return &Store{db: db, tracer: tracer, logger: logger}
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, price, stock) VALUES ($1, $2, $3, $4) RETURNING id`,
		product.Name, product.Description, product.Price, product.Stock,
	).Scan(&product.ID)
	if err != nil {
		return s.fail(span, "insert product", err)
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	s.logger.InfoContext(ctx, "Product created in database", slog.Int64("product_id", product.ID))
	span.SetStatus(codes.Ok, "Product created")
	return nil
}

func (s *Store) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", product.ID))

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, stock = $5 WHERE id = $1`,
		product.ID, product.Name, product.Description, product.Price, product.Stock,
	)
	if err != nil {
		return s.fail(span, "update product", err)
	}
	if err := expectRow(res, domain.ErrProductNotFound); err != nil {
		return s.fail(span, "update product", err)
	}

	s.logger.InfoContext(ctx, "Product updated in database", slog.Int64("product_id", product.ID))
	span.SetStatus(codes.Ok, "Product updated")
	return nil
}

// Delete removes a product; its cart lines go with it through the
// foreign key.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return s.fail(span, "delete product", err)
	}
	if err := expectRow(res, domain.ErrProductNotFound); err != nil {
		return s.fail(span, "delete product", err)
	}

	s.logger.InfoContext(ctx, "Product deleted from database", slog.Int64("product_id", id))
	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, stock FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, s.fail(span, "select product", err)
	}
	span.SetStatus(codes.Ok, "Product found")
	return p, nil
}

func (s *Store) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.FindByName")
	defer span.End()

	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, stock FROM products WHERE lower(name) = lower($1)`, name))
	if err != nil {
		return nil, s.fail(span, "select product", err)
	}
	span.SetStatus(codes.Ok, "Product found")
	return p, nil
}

func (s *Store) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, price, stock FROM products ORDER BY id`)
	if err != nil {
		return nil, s.fail(span, "list products", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, s.fail(span, "scan product", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, "list products", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products listed")
	return products, nil
}

func (s *Store) Cart(ctx context.Context) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartRepository.Cart")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.id, ci.quantity, p.id, p.name, p.description, p.price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		ORDER BY ci.id`)
	if err != nil {
		return nil, s.fail(span, "select cart", err)
	}
	defer rows.Close()

	cart := &domain.Cart{Items: []domain.CartItem{}}
	for rows.Next() {
		var item domain.CartItem
		p := &item.Product
		if err := rows.Scan(&item.ID, &item.Quantity, &p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
			return nil, s.fail(span, "scan cart item", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, "select cart", err)
	}

	span.SetAttributes(attribute.Int("cart.items", len(cart.Items)))
	span.SetStatus(codes.Ok, "Cart retrieved")
	return cart, nil
}

// AddItem reserves quantity units and merges them into the product's line.
func (s *Store) AddItem(ctx context.Context, productID int64, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "CartRepository.AddItem")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID), attribute.Int("quantity", quantity))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var stock int
		err := tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if stock < quantity {
			return domain.ErrNotEnoughStock
		}

		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, productID, quantity); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (product_id, quantity) VALUES ($1, $2)
			ON CONFLICT (product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
			productID, quantity)
		return err
	})
	if err != nil {
		return s.fail(span, "add cart item", err)
	}

	s.logger.InfoContext(ctx, "Item added to cart", slog.Int64("product_id", productID), slog.Int("quantity", quantity))
	span.SetStatus(codes.Ok, "Item added")
	return nil
}

// SetQuantity moves stock by the difference between the new and old quantity.
func (s *Store) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "CartRepository.SetQuantity")
	defer span.End()
	span.SetAttributes(attribute.Int64("cart_item.id", itemID), attribute.Int("quantity", quantity))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var current, stock int
		var productID int64
		err := tx.QueryRowContext(ctx, `
			SELECT ci.quantity, p.id, p.stock
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.id = $1
			FOR UPDATE`, itemID).Scan(&current, &productID, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCartItemNotFound
		}
		if err != nil {
			return err
		}

		diff := quantity - current
		if diff > stock {
			return domain.ErrNotEnoughStock
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, productID, diff); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
		return err
	})
	if err != nil {
		return s.fail(span, "set cart quantity", err)
	}

	span.SetStatus(codes.Ok, "Quantity changed")
	return nil
}

// RemoveItem deletes a line and returns its units to stock.
func (s *Store) RemoveItem(ctx context.Context, itemID int64) error {
	ctx, span := s.tracer.Start(ctx, "CartRepository.RemoveItem")
	defer span.End()
	span.SetAttributes(attribute.Int64("cart_item.id", itemID))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var productID int64
		var quantity int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM cart_items WHERE id = $1 RETURNING product_id, quantity`, itemID,
		).Scan(&productID, &quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCartItemNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, productID, quantity)
		return err
	})
	if err != nil {
		return s.fail(span, "remove cart item", err)
	}

	span.SetStatus(codes.Ok, "Item removed")
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// fail records err on the span and maps driver errors onto domain errors.
func (s *Store) fail(span trace.Span, op string, err error) error {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = domain.ErrProductNotFound
	case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
		err = domain.ErrDuplicateProduct
	case isDomainError(err):
	default:
		err = fmt.Errorf("%s: %w", op, err)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrProductNotFound,
		domain.ErrCartItemNotFound,
		domain.ErrNotEnoughStock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func scanProduct(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
		return nil, err
	}
	return &p, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
