// Package catalogapi is the HTTP client for the product and cart REST API
// consumed by the admin UI.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 64 << 10

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("catalog api: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("catalog api: status %d", e.StatusCode)
}

// Message is the text to show a user: the detail field when present,
// otherwise the compacted JSON body, otherwise "".
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	var buf bytes.Buffer
	if e.Body != "" && json.Compact(&buf, []byte(e.Body)) == nil {
		return buf.String()
	}
	return ""
}

// ErrorMessage returns the server-provided message carried by err, or
// fallback when there is none.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Client talks to the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for baseURL. Requests are traced through otelhttp.
func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// productPayload is the create body; the server assigns the id.
type productPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ListProducts handles GET /products/
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// CreateProduct handles POST /products
func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	body := productPayload{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
	}
	var created domain.Product
	err := c.do(ctx, http.MethodPost, "/products", body, &created)
	return created, err
}

// UpdateProduct handles PUT /products/{id}
func (c *Client) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	var updated domain.Product
	err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(p.ID, 10), p, &updated)
	return updated, err
}

// DeleteProduct handles DELETE /products/{id}
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(id, 10), nil, nil)
}

// GetCart handles GET /cart
func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, http.MethodGet, "/cart", nil, &cart)
	return cart, err
}

// AddCartItem handles POST /cart/items
func (c *Client) AddCartItem(ctx context.Context, req domain.CartItemRequest) (domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, http.MethodPost, "/cart/items", req, &cart)
	return cart, err
}

// UpdateCartItem handles PUT /cart/items/{itemId}
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, req domain.CartItemRequest) (domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, http.MethodPut, "/cart/items/"+strconv.FormatInt(itemID, 10), req, &cart)
	return cart, err
}

// RemoveCartItem handles DELETE /cart/items/{itemId}
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	var cart domain.Cart
	err := c.do(ctx, http.MethodDelete, "/cart/items/"+strconv.FormatInt(itemID, 10), nil, &cart)
	return cart, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Catalog API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.logger.WarnContext(ctx, "Catalog API returned an error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	apiErr.Body = string(raw)

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) != nil || len(payload.Detail) == 0 {
		return apiErr
	}
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		apiErr.Detail = detail
	} else {
		// validation errors carry a list; keep it readable
		apiErr.Detail = string(payload.Detail)
	}
	return apiErr
}
