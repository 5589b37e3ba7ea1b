package validator

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/browser"
	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/scraper"
)

var ecosystem = flag.Bool("ecosystem", false, "validate every configured brand against its live site")

type stubScraper struct {
	brand string
	out   scraper.Outcome
}

func (s stubScraper) Brand() string { return s.brand }

func (s stubScraper) Scrape(context.Context) scraper.Outcome { return s.out }

func TestValidateReportsFailingBrands(t *testing.T) {
	scrapers := []orchestrator.Scraper{
		stubScraper{brand: "kopps", out: scraper.Outcome{Brand: "kopps", Records: []models.FlavorRecord{{LocationID: "kopps-1", FlavorName: "Butter Pecan"}}}},
		stubScraper{brand: "gilles", out: scraper.Outcome{Brand: "gilles", Reason: scraper.ErrNoFlavor}},
		stubScraper{brand: "bigdeal", out: scraper.Outcome{Brand: "bigdeal"}},
	}
	noon := time.Date(2026, 10, 14, 17, 0, 0, 0, time.UTC)
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	report := New(scrapers, Options{
		NotBefore: DefaultNotBefore,
		Location:  chicago,
		Now:       func() time.Time { return noon },
	}).Validate(context.Background())

	require.Empty(t, report.Warnings)
	require.Equal(t, []string{"bigdeal", "gilles"}, report.Failed())

	err = report.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, scraper.ErrNoFlavor)
	require.Contains(t, err.Error(), "bigdeal, gilles")
}

func TestValidatePassesWhenEveryBrandHasRecords(t *testing.T) {
	scrapers := []orchestrator.Scraper{
		stubScraper{brand: "kopps", out: scraper.Outcome{Brand: "kopps", Records: []models.FlavorRecord{{LocationID: "kopps-1"}}}},
	}
	report := New(scrapers, Options{}).Validate(context.Background())
	require.NoError(t, report.Err())
	require.Empty(t, report.Failed())
}

func TestValidateWarnsWhenEarly(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	// 07:30 in Chicago
	early := time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC)

	report := New(nil, Options{
		NotBefore: DefaultNotBefore,
		Location:  chicago,
		Now:       func() time.Time { return early },
	}).Validate(context.Background())

	require.Len(t, report.Warnings, 1)
	require.Contains(t, report.Warnings[0], "07:30")
}

func TestValidateSkipsBrandsWithoutLocations(t *testing.T) {
	scrapers := []orchestrator.Scraper{
		stubScraper{brand: "kopps", out: scraper.Outcome{Brand: "kopps", Records: []models.FlavorRecord{{LocationID: "kopps-1"}}}},
		stubScraper{brand: "closed", out: scraper.Outcome{Brand: "closed", State: scraper.StateEmpty, Reason: scraper.ErrNoLocations}},
	}
	report := New(scrapers, Options{}).Validate(context.Background())

	require.NoError(t, report.Err())
	require.Empty(t, report.Failed())
	require.Len(t, report.Brands, 2)
	closed := report.Brands[0]
	require.Equal(t, "closed", closed.Brand)
	require.True(t, closed.Inactive)
	require.False(t, closed.OK())
	require.ErrorIs(t, closed.Reason, scraper.ErrNoLocations)
}

// TestEcosystem hits every configured brand live. Run it with
// go test -run Ecosystem ./internal/validator -ecosystem
func TestEcosystem(t *testing.T) {
	if !*ecosystem {
		t.Skip("live validation disabled; pass -ecosystem to enable")
	}

	root := filepath.Join("..", "..")
	configPath := envOr("CONFIG_PATH", filepath.Join(root, "config.yaml"))
	locationsPath := envOr("LOCATIONS_PATH", filepath.Join(root, "locations.yaml"))

	brandCfg, err := config.LoadBrands(configPath)
	require.NoError(t, err)
	reg, err := registry.Load(locationsPath)
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	pool := browser.NewPool(2, logger)

	built, err := scraper.Build(brandCfg.Brands, reg, pool, logger)
	require.NoError(t, err)
	scrapers := make([]orchestrator.Scraper, len(built))
	for i, s := range built {
		scrapers[i] = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	report := New(scrapers, Options{NotBefore: DefaultNotBefore, Location: brandCfg.Location, Logger: logger}).Validate(ctx)
	for _, w := range report.Warnings {
		t.Log(w)
	}
	require.NoError(t, report.Err())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
