package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/artifact"
	"mspro-labs/scoop-scout/internal/browser"
	"mspro-labs/scoop-scout/internal/db"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/scraper"
)

var (
	scrapeBrands []string
	scrapeOutput string
	scrapeNoDB   bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run every brand scraper once and publish flavors.json",
	Long: `Scrapes all configured brands, writes the flavors.json artifact atomically and
replaces the stored snapshot. Brands that fail are reported but do not fail the run.`,
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(cmd.Context())
	},
}

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeBrands, "brand", nil, "only scrape these brand keys")
	scrapeCmd.Flags().StringVar(&scrapeOutput, "output", "", "artifact path (overrides OUTPUT_PATH)")
	scrapeCmd.Flags().BoolVar(&scrapeNoDB, "no-db", false, "skip saving the snapshot to SQLite")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(ctx context.Context) {
	// 1. Load Config
	a := mustLoadApp()
	logger := a.logger
	defer logger.Sync()

	brands, err := a.brands.Select(scrapeBrands)
	if err != nil {
		logger.Fatal("invalid --brand", zap.Error(err))
	}

	// 2. Wire scrapers
	pool := browser.NewPool(a.cfg.BrowserPoolSize, logger)
	built, err := scraper.Build(brands, a.reg, pool, logger)
	if err != nil {
		logger.Fatal("failed to build scrapers", zap.Error(err))
	}

	// 3. Run them
	report := orchestrator.New(asScrapers(built), orchestrator.Options{
		Concurrency: a.cfg.Concurrency,
		Logger:      logger,
	}).Run(ctx)
	printReport(report)

	// 4. Publish the artifact and snapshot
	out := a.cfg.OutputPath
	if scrapeOutput != "" {
		out = scrapeOutput
	}
	var database *sql.DB
	if !scrapeNoDB {
		database, err = db.Connect(a.cfg.DBPath)
		if err != nil {
			logger.Fatal("database error", zap.Error(err))
		}
		defer database.Close()
	}
	if err := publish(ctx, report, a.reg, a.brands.Location, out, database, logger); err != nil {
		logger.Fatal("nothing published", zap.Error(err))
	}
}

// publish writes the artifact to out and, when database is set, replaces the
// stored snapshot. An interrupted run publishes nothing.
func publish(ctx context.Context, report orchestrator.Report, reg *registry.Registry, zone *time.Location, out string, database *sql.DB, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	art := artifact.Build(report, reg, zone)
	blob, err := artifact.Write(out, art)
	if err != nil {
		return err
	}
	logger.Info("artifact written", zap.String("path", out), zap.Int("flavors", art.FlavorCount))

	if database == nil {
		return nil
	}
	count, err := saveSnapshot(database, art, blob, report.GeneratedAt, report.Records())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	logger.Info("snapshot saved", zap.Int64("records", count))
	return nil
}

// saveSnapshot stores blob, the artifact bytes as written to disk, next to
// the records so serve can hand it out unchanged.
func saveSnapshot(database *sql.DB, art artifact.Artifact, blob []byte, generatedAt time.Time, records []models.FlavorRecord) (int64, error) {
	return db.SaveSnapshot(database, db.Snapshot{
		GeneratedAt:    generatedAt,
		FlavorCount:    art.FlavorCount,
		DegradedBrands: art.DegradedBrands,
		EmptyBrands:    art.EmptyBrands,
		Artifact:       blob,
	}, records)
}

func printReport(report orchestrator.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRAND\tRECORDS\tSKIPPED\tSTATUS")
	for _, o := range report.Outcomes {
		status := "ok"
		switch {
		case o.Inactive():
			status = "inactive: no enabled locations"
		case len(o.Records) == 0 && o.Reason != nil:
			status = "EMPTY: " + o.Reason.Error()
		case len(o.Records) == 0:
			status = "EMPTY"
		case o.Degraded():
			status = "degraded"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", o.Brand, len(o.Records), len(o.Skipped), status)
	}
	w.Flush()
}
