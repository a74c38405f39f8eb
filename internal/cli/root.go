// Package cli wires configuration, telemetry and the HTTP servers behind
// the catalog-admin commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/mrops-br/catalog-admin/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "catalog-admin",
	Short: "Product catalog admin UI and reference catalog API",
	Long: `catalog-admin serves a server-rendered admin page for a product catalog
with a shopping cart, backed by a product/cart REST API. The api command
runs a reference implementation of that API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads configuration after binding the command's flags.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	v := viper.New()
	for key, flag := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}
	return config.LoadConfig(v, configFile)
}

// runWithTelemetry starts telemetry, runs fn until SIGINT or SIGTERM and
// flushes telemetry on the way out.
func runWithTelemetry(cfg *config.Config, fn func(ctx context.Context, telem *telemetry.Telemetry) error) error {
	telem, err := telemetry.New(&cfg.OTLP)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			telem.Logger.Error("Error shutting down telemetry", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, telem)
}
