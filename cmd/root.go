package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/logs"
	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/scraper"
)

var rootCmd = &cobra.Command{
	Use:   "scoop-scout",
	Short: "Collect today's flavor of the day from frozen custard shops",
	Long: `Scrapes each configured brand's website or social feed for today's flavor,
writes static/data/flavors.json for the map, and keeps the latest snapshot in SQLite.

Settings come from environment variables (DB_PATH, CONFIG_PATH, LOCATIONS_PATH,
OUTPUT_PATH, LOG_LEVEL, CONCURRENCY, BROWSER_POOL_SIZE, ADDR).`,
	SilenceUsage: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every scraping command needs loaded before it starts.
type app struct {
	cfg    config.AppConfig
	logger *zap.Logger
	brands *config.BrandConfig
	reg    *registry.Registry
}

func loadApp() (*app, error) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	logger, err := logs.NewLogger(appCfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}

	brands, err := config.LoadBrands(appCfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(appCfg.LocationsPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.Int("brands", len(brands.Brands)),
		zap.Strings("registry_brands", reg.Brands()))

	return &app{cfg: appCfg, logger: logger, brands: brands, reg: reg}, nil
}

func mustLoadApp() *app {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return a
}

func asScrapers(built []*scraper.BrandScraper) []orchestrator.Scraper {
	out := make([]orchestrator.Scraper, len(built))
	for i, s := range built {
		out[i] = s
	}
	return out
}
