package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/browser"
	"mspro-labs/scoop-scout/internal/scraper"
	"mspro-labs/scoop-scout/internal/validator"
)

var (
	validateBrands    []string
	validateNotBefore int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every enabled brand returns at least one flavor",
	Long: `Runs every brand scraper live and fails when any brand returns nothing.
A brand that has not posted yet looks the same as a broken scraper, so runs
before --not-before (local hour) print a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.Context())
	},
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateBrands, "brand", nil, "only validate these brand keys")
	validateCmd.Flags().IntVar(&validateNotBefore, "not-before", validator.DefaultNotBefore, "local hour before which empty results are expected (0 disables)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	logger := a.logger
	defer logger.Sync()

	brands, err := a.brands.Select(validateBrands)
	if err != nil {
		return err
	}

	pool := browser.NewPool(a.cfg.BrowserPoolSize, logger)
	built, err := scraper.Build(brands, a.reg, pool, logger)
	if err != nil {
		return err
	}

	report := validator.New(asScrapers(built), validator.Options{
		Concurrency: a.cfg.Concurrency,
		NotBefore:   validateNotBefore,
		Location:    a.brands.Location,
		Logger:      logger,
	}).Validate(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRAND\tRECORDS\tSKIPPED\tRESULT")
	for _, b := range report.Brands {
		result := "PASS"
		if b.Degraded {
			result = "PASS (partial)"
		}
		switch {
		case b.Inactive:
			result = "SKIP: " + b.Reason.Error()
		case !b.OK():
			result = "FAIL: " + b.Reason.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.Brand, b.Records, b.Skipped, result)
	}
	w.Flush()
	for _, warning := range report.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}

	if err := report.Err(); err != nil {
		logger.Error("ecosystem check failed", zap.Strings("brands", report.Failed()))
		return err
	}
	return nil
}
