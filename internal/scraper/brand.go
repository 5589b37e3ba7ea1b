package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/extract"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/retry"
)

const DefaultLocationTimeout = 3 * time.Minute

// BrandScraper runs one brand's locations through an adapter and the
// extraction pipeline.
type BrandScraper struct {
	brand   config.Brand
	reg     *registry.Registry
	adapter Adapter
	retry   *retry.Controller
	logger  *zap.Logger

	now             func() time.Time
	locationTimeout time.Duration
}

type Option func(*BrandScraper)

func WithClock(now func() time.Time) Option {
	return func(s *BrandScraper) { s.now = now }
}

func WithLocationTimeout(d time.Duration) Option {
	return func(s *BrandScraper) { s.locationTimeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *BrandScraper) { s.logger = l }
}

func NewBrandScraper(brand config.Brand, reg *registry.Registry, adapter Adapter, rc *retry.Controller, opts ...Option) *BrandScraper {
	s := &BrandScraper{
		brand:           brand,
		reg:             reg,
		adapter:         adapter,
		retry:           rc,
		logger:          zap.NewNop(),
		now:             time.Now,
		locationTimeout: DefaultLocationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retry == nil {
		s.retry = retry.New(retry.DefaultPolicy, s.logger)
	}
	s.logger = s.logger.Named("scraper").With(zap.String("brand", brand.Key))
	return s
}

func (s *BrandScraper) Brand() string { return s.brand.Key }

type locResult struct {
	loc     models.Location
	records []models.FlavorRecord
	err     error
}

// Scrape never returns an error and never panics; failures end up in
// Outcome.Reason and Outcome.Skipped.
func (s *BrandScraper) Scrape(ctx context.Context) (out Outcome) {
	out = Outcome{Brand: s.brand.Key, State: StateStart}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("brand scraper panicked", zap.Any("panic", r))
			out = Outcome{
				Brand:     s.brand.Key,
				State:     StateDone,
				Reason:    fmt.Errorf("scraper panic: %v", r),
				Attempted: out.Attempted,
			}
		}
	}()

	s.enter(&out, StateLoadingLocations)
	locs := s.reg.LocationsFor(s.brand.Key)
	if len(locs) == 0 {
		s.enter(&out, StateEmpty)
		out.Reason = ErrNoLocations
		s.logger.Warn("brand has no enabled locations")
		return out
	}

	s.enter(&out, StateScraping)
	out.Attempted = len(locs)
	var results []locResult
	if s.brand.Shared {
		results = s.scrapeShared(ctx, locs)
	} else {
		results = s.scrapeEach(ctx, locs)
	}

	s.enter(&out, StateNormalizing)
	var errs []error
	type recordKey struct{ location, flavor string }
	seen := make(map[recordKey]bool, len(results))
	for _, res := range results {
		if res.err != nil {
			out.Skipped = append(out.Skipped, Skip{LocationID: res.loc.ID, Err: res.err})
			errs = append(errs, res.err)
			s.logger.Warn("location skipped", zap.String("location", res.loc.ID), zap.Error(res.err))
			continue
		}
		for _, rec := range res.records {
			key := recordKey{rec.LocationID, strings.ToLower(rec.FlavorName)}
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Records = append(out.Records, rec)
		}
	}
	if len(out.Records) == 0 {
		out.Reason = fmt.Errorf("no records from %d locations: %w", out.Attempted, errors.Join(errs...))
	}

	s.enter(&out, StateDone)
	s.logger.Info("brand finished",
		zap.Int("records", len(out.Records)),
		zap.Int("skipped", len(out.Skipped)))
	return out
}

func (s *BrandScraper) enter(out *Outcome, st State) {
	out.State = st
	s.logger.Debug("state", zap.Stringer("state", st))
}

func (s *BrandScraper) scrapeEach(ctx context.Context, locs []models.Location) []locResult {
	results := make([]locResult, len(locs))

	var g errgroup.Group
	g.SetLimit(max(1, s.brand.LocationConcurrency))
	for i, loc := range locs {
		g.Go(func() error {
			results[i] = s.scrapeLocation(ctx, loc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scrapeShared fetches once from the first location and credits its flavors
// to every location of the brand.
func (s *BrandScraper) scrapeShared(ctx context.Context, locs []models.Location) []locResult {
	first := s.scrapeLocation(ctx, locs[0])

	results := make([]locResult, len(locs))
	for i, loc := range locs {
		if first.err != nil {
			results[i] = locResult{loc: loc, err: first.err}
			continue
		}
		recs := make([]models.FlavorRecord, len(first.records))
		for j, rec := range first.records {
			rec.LocationID = loc.ID
			recs[j] = rec
		}
		results[i] = locResult{loc: loc, records: recs}
	}
	return results
}

func (s *BrandScraper) scrapeLocation(ctx context.Context, loc models.Location) (res locResult) {
	res.loc = loc
	defer func() {
		if r := recover(); r != nil {
			res = locResult{loc: loc, err: fmt.Errorf("location %s panicked: %v", loc.ID, r)}
		}
	}()

	lctx, cancel := context.WithTimeout(ctx, s.locationTimeout)
	defer cancel()

	raw, err := retry.Value(lctx, s.retry, func(ctx context.Context) (string, error) {
		return s.adapter.Fetch(ctx, loc)
	}, zap.String("brand", s.brand.Key), zap.String("location", loc.ID))
	if err != nil {
		res.err = fmt.Errorf("location %s: %w", loc.ID, err)
		return res
	}

	var frags []models.Fragment
	if s.brand.MultiFlavor() {
		frags = extract.ExtractAll(raw, s.brand.Patterns)
	} else if frag, ok := extract.Extract(raw, s.brand.Patterns); ok {
		frags = []models.Fragment{frag}
	}
	if len(frags) == 0 {
		res.err = fmt.Errorf("location %s: %w", loc.ID, ErrNoFlavor)
		return res
	}

	now := s.now()
	if s.brand.Location != nil {
		now = now.In(s.brand.Location)
	}
	date := s.brand.Today(now)
	if s.brand.Selectors.Date != "" {
		if pageDate, ok := extract.PageDate(raw, now); ok && pageDate != date {
			res.err = fmt.Errorf("location %s: page is dated %s, today is %s: %w", loc.ID, pageDate, date, ErrStaleFlavor)
			return res
		}
	}

	for _, frag := range frags {
		res.records = append(res.records, models.FlavorRecord{
			LocationID:  loc.ID,
			Brand:       s.brand.Key,
			FlavorName:  frag.FlavorName,
			Description: frag.Description,
			Date:        date,
			SourceURL:   s.sourceURL(loc),
		})
	}
	return res
}

func (s *BrandScraper) sourceURL(loc models.Location) string {
	if s.brand.Strategy == config.StrategySocial {
		return loc.Facebook
	}
	return loc.URL
}
