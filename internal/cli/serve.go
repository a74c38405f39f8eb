package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrops-br/catalog-admin/internal/app/admin"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/catalogapi"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/http/handler"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/mrops-br/catalog-admin/internal/ui"
	"github.com/spf13/cobra"
)

const adminServiceName = "catalog-admin"

func init() {
	serveCmd.Flags().String("port", "", "port for the admin UI (default 8080)")
	serveCmd.Flags().String("api-url", "", "base URL of the catalog API")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{
			"server.port":  "port",
			"api.base_url": "api-url",
		})
		if err != nil {
			return err
		}
		return runWithTelemetry(cfg, func(ctx context.Context, telem *telemetry.Telemetry) error {
			server, err := NewAdminServer(cfg, telem)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		})
	},
}

// NewAdminServer assembles the admin UI: API client, per-session
// controllers, renderer and routes.
func NewAdminServer(cfg *config.Config, telem *telemetry.Telemetry) (*http.Server, error) {
	tracer := telem.TracerProvider.Tracer(adminServiceName)
	meter := telem.MeterProvider.Meter(adminServiceName)
	logger := telem.Logger

	logger.Info("Starting catalog admin",
		slog.String("api_url", cfg.API.BaseURL),
		slog.Duration("session_ttl", cfg.Session.TTL),
	)

	client := catalogapi.New(cfg.API.BaseURL, cfg.API.Timeout, logger)
	sessions := admin.NewSessions(func() *admin.Controller {
		return admin.NewController(client, tracer, meter, logger)
	}, cfg.Session.TTL, logger)

	renderer, err := ui.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	h := handler.NewAdminHandler(sessions, renderer, cfg.Session.TTL, logger)
	return http.NewServer(adminServiceName, &cfg.Server, logger, telem, http.AdminRoutes(h)), nil
}
