package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http/middleware"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	name      string
	router    *chi.Mux
	config    *config.ServerConfig
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
}

// NewServer creates a server named name (used for the meter and span
// names) with the shared middleware chain, /health, /metrics and the
// routes registered by routes.
func NewServer(
	name string,
	cfg *config.ServerConfig,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
	routes func(chi.Router),
) *Server {
	s := &Server{
		name:      name,
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	routes(s.router)
	s.setupOperationalRoutes()

	return s
}

// APIRoutes registers the catalog REST API.
func APIRoutes(products *handler.ProductHandler, cart *handler.CartHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", products.CreateProduct)
			r.Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
			r.Put("/{id}", products.UpdateProduct)
			r.Delete("/{id}", products.DeleteProduct)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Post("/items", cart.AddItem)
			r.Put("/items/{id}", cart.UpdateItem)
			r.Delete("/items/{id}", cart.RemoveItem)
		})
	}
}

// AdminRoutes registers the admin page and its form actions.
func AdminRoutes(h *handler.AdminHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.Session)

			r.Get("/", h.Page)
			r.Get("/search", h.Search)
			r.Post("/dialog/add", h.OpenAdd)
			r.Post("/dialog/close", h.CloseDialog)
			r.Post("/notice/dismiss", h.DismissNotice)

			r.Post("/products", h.CreateProduct)
			r.Post("/products/{id}", h.UpdateProduct)
			r.Post("/products/{id}/view", h.OpenDetails)
			r.Post("/products/{id}/edit", h.OpenEdit)
			r.Post("/products/{id}/delete", h.OpenDelete)
			r.Post("/products/{id}/remove", h.DeleteProduct)

			r.Post("/cart/items", h.AddToCart)
			r.Post("/cart/items/{id}", h.UpdateCartItem)
		})
	}
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.HTTPRouteContext())

	meter := s.telemetry.MeterProvider.Meter(s.name)
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

func (s *Server) setupOperationalRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// OpenTelemetry metrics through the Prometheus exporter's registry
	s.router.Get("/metrics", promhttp.HandlerFor(s.telemetry.Registry, promhttp.HandlerOpts{}).ServeHTTP)
}

// Handler returns the router wrapped with otelhttp for request spans and
// the standard http.server.* metrics.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, s.name,
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("server", s.name),
			slog.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", slog.String("server", s.name))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down %s: %w", s.name, err)
	}
	return <-errCh
}
