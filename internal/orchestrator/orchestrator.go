// Package orchestrator runs every brand scraper in one isolated, bounded
// pass.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scraper"
)

const DefaultConcurrency = 3

// Scraper is one brand's unit of work. *scraper.BrandScraper implements it.
type Scraper interface {
	Brand() string
	Scrape(ctx context.Context) scraper.Outcome
}

type Options struct {
	Concurrency int
	Logger      *zap.Logger
	Now         func() time.Time
}

type Orchestrator struct {
	scrapers    []Scraper
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func New(scrapers []Scraper, opts Options) *Orchestrator {
	o := &Orchestrator{
		scrapers:    scrapers,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if o.concurrency < 1 {
		o.concurrency = DefaultConcurrency
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.logger = o.logger.Named("orchestrator")
	return o
}

// Report is the merged result of one run.
type Report struct {
	GeneratedAt    time.Time
	Outcomes       []scraper.Outcome // sorted by brand
	EmptyBrands    []string // had locations, produced no records
	DegradedBrands []string
	InactiveBrands []string // no enabled locations
}

// Records flattens every brand's records in brand order.
func (r Report) Records() []models.FlavorRecord {
	var out []models.FlavorRecord
	for _, o := range r.Outcomes {
		out = append(out, o.Records...)
	}
	return out
}

// Run scrapes all brands. It always returns a report; a brand that fails or
// panics shows up in EmptyBrands without affecting the others. Brands with
// no enabled locations are listed in InactiveBrands instead.
func (o *Orchestrator) Run(ctx context.Context) Report {
	outcomes := make([]scraper.Outcome, len(o.scrapers))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, s := range o.scrapers {
		g.Go(func() error {
			outcomes[i] = o.runOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].Brand < outcomes[j].Brand })

	report := Report{GeneratedAt: o.now(), Outcomes: outcomes}
	for _, out := range outcomes {
		switch {
		case out.Inactive():
			report.InactiveBrands = append(report.InactiveBrands, out.Brand)
		case len(out.Records) == 0:
			report.EmptyBrands = append(report.EmptyBrands, out.Brand)
		case out.Degraded():
			report.DegradedBrands = append(report.DegradedBrands, out.Brand)
		}
	}

	o.logger.Info("run finished",
		zap.Int("brands", len(outcomes)),
		zap.Int("records", len(report.Records())),
		zap.Strings("empty", report.EmptyBrands),
		zap.Strings("degraded", report.DegradedBrands),
		zap.Strings("inactive", report.InactiveBrands))
	return report
}

func (o *Orchestrator) runOne(ctx context.Context, s Scraper) (out scraper.Outcome) {
	brand := s.Brand()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("brand panicked", zap.String("brand", brand), zap.Any("panic", r))
			out = scraper.Outcome{Brand: brand, State: scraper.StateDone, Reason: fmt.Errorf("brand %s panicked: %v", brand, r)}
		}
	}()

	start := o.now()
	out = s.Scrape(ctx)
	out.Brand = brand
	if out.Reason != nil {
		o.logger.Warn("brand produced no records", zap.String("brand", brand), zap.Error(out.Reason))
	}
	o.logger.Debug("brand done", zap.String("brand", brand), zap.Duration("took", o.now().Sub(start)))
	return out
}
