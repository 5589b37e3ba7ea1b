// Package validator checks that every configured brand still yields at least
// one flavor from its live sources.
//
// A brand with no record is either not posting yet today or has a broken
// extraction; the two cannot be told apart from the output alone, which is
// why validating before NotBefore only warns about the time of day.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/scraper"
)

// DefaultNotBefore is the local hour by which shops usually post.
const DefaultNotBefore = 10

type Options struct {
	Concurrency int
	NotBefore   int // local hour, 0 disables the warning
	Location    *time.Location
	Now         func() time.Time
	Logger      *zap.Logger
}

type Validator struct {
	scrapers []orchestrator.Scraper
	opts     Options
	logger   *zap.Logger
}

func New(scrapers []orchestrator.Scraper, opts Options) *Validator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Validator{scrapers: scrapers, opts: opts, logger: opts.Logger.Named("validator")}
}

type BrandResult struct {
	Brand    string
	Records  int
	Skipped  int
	Degraded bool
	Inactive bool // no enabled locations; neither passes nor fails
	Reason   error
}

func (b BrandResult) OK() bool { return b.Records > 0 }

func (b BrandResult) failed() bool { return !b.OK() && !b.Inactive }

type Report struct {
	CheckedAt time.Time
	Brands    []BrandResult
	Warnings  []string
}

// Failed lists the brands that had locations but produced no record.
func (r Report) Failed() []string {
	var out []string
	for _, b := range r.Brands {
		if b.failed() {
			out = append(out, b.Brand)
		}
	}
	return out
}

// Err is nil when every brand with enabled locations produced at least one
// record.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, b := range r.Brands {
		if b.failed() {
			errs = append(errs, fmt.Errorf("%s: %w", b.Brand, b.Reason))
		}
	}
	return fmt.Errorf("%d brand(s) returned no flavors (%s): %w",
		len(failed), strings.Join(failed, ", "), errors.Join(errs...))
}

func (v *Validator) Validate(ctx context.Context) Report {
	now := v.opts.Now()
	report := Report{CheckedAt: now}

	if v.opts.NotBefore > 0 {
		if local := now.In(v.opts.Location); local.Hour() < v.opts.NotBefore {
			msg := fmt.Sprintf("validating at %s, before %02d:00 local; brands may not have posted today's flavor yet",
				local.Format("15:04"), v.opts.NotBefore)
			report.Warnings = append(report.Warnings, msg)
			v.logger.Warn(msg)
		}
	}

	run := orchestrator.New(v.scrapers, orchestrator.Options{
		Concurrency: v.opts.Concurrency,
		Logger:      v.opts.Logger,
		Now:         v.opts.Now,
	}).Run(ctx)

	for _, out := range run.Outcomes {
		res := resultFor(out)
		report.Brands = append(report.Brands, res)
		switch {
		case res.OK():
			v.logger.Info("brand ok", zap.String("brand", res.Brand), zap.Int("records", res.Records), zap.Bool("degraded", res.Degraded))
		case res.Inactive:
			v.logger.Info("brand skipped", zap.String("brand", res.Brand), zap.Error(res.Reason))
		default:
			v.logger.Error("brand failed", zap.String("brand", res.Brand), zap.Error(res.Reason))
		}
	}
	return report
}

func resultFor(out scraper.Outcome) BrandResult {
	res := BrandResult{
		Brand:    out.Brand,
		Records:  len(out.Records),
		Skipped:  len(out.Skipped),
		Degraded: out.Degraded(),
		Inactive: len(out.Records) == 0 && out.Inactive(),
		Reason:   out.Reason,
	}
	if !res.OK() && res.Reason == nil {
		res.Reason = scraper.ErrNoFlavor
	}
	return res
}
