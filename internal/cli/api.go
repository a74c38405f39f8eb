package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrops-br/catalog-admin/internal/app/service"
	"github.com/mrops-br/catalog-admin/internal/domain"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/repository/memory"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/seed"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

const apiServiceName = "catalog-api"

// store is what the services need from a storage backend.
type store interface {
	domain.ProductRepository
	domain.CartRepository
}

func init() {
	apiCmd.Flags().String("port", "", "port for the catalog API (default 8000)")
	apiCmd.Flags().String("database-url", "", "PostgreSQL DSN; empty keeps data in memory")
	apiCmd.Flags().String("seed", "", "YAML file of products to preload")
	rootCmd.AddCommand(apiCmd)
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the reference catalog API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{
			"backend.port":       "port",
			"database.url":       "database-url",
			"database.seed_file": "seed",
		})
		if err != nil {
			return err
		}
		return runWithTelemetry(cfg, func(ctx context.Context, telem *telemetry.Telemetry) error {
			server, closeStore, err := NewAPIServer(ctx, cfg, telem)
			if err != nil {
				return err
			}
			defer closeStore()
			return server.Run(ctx)
		})
	},
}

// NewAPIServer assembles the reference API on the configured store and
// applies the seed file, if any. The returned func releases the store.
func NewAPIServer(ctx context.Context, cfg *config.Config, telem *telemetry.Telemetry) (*http.Server, func(), error) {
	tracer := telem.TracerProvider.Tracer(apiServiceName)
	meter := telem.MeterProvider.Meter(apiServiceName)
	logger := telem.Logger

	repo, closeStore, err := openStore(ctx, cfg.Database, tracer, logger)
	if err != nil {
		return nil, nil, err
	}

	productService := service.NewProductService(repo, tracer, meter, logger)
	cartService := service.NewCartService(repo, tracer, meter, logger)

	if cfg.Database.SeedFile != "" {
		f, err := seed.Load(cfg.Database.SeedFile)
		if err == nil {
			_, err = seed.Apply(ctx, f, productService, logger)
		}
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	}

	routes := http.APIRoutes(
		handler.NewProductHandler(productService, logger),
		handler.NewCartHandler(cartService, logger),
	)
	return http.NewServer(apiServiceName, &cfg.Backend, logger, telem, routes), closeStore, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, tracer trace.Tracer, logger *slog.Logger) (store, func(), error) {
	if cfg.URL == "" {
		logger.Info("Using in-memory store")
		return memory.NewStore(tracer, logger), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	pg := postgres.NewStore(db, tracer, logger)
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("preparing database: %w", err)
	}

	logger.Info("Using PostgreSQL store")
	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Error("Failed to close database", slog.String("error", err.Error()))
		}
	}, nil
}
