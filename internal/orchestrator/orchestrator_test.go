package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scraper"
)

type stubScraper struct {
	brand  string
	scrape func(ctx context.Context) scraper.Outcome
}

func (s stubScraper) Brand() string { return s.brand }

func (s stubScraper) Scrape(ctx context.Context) scraper.Outcome { return s.scrape(ctx) }

func okScraper(brand string, locations ...string) stubScraper {
	return stubScraper{brand: brand, scrape: func(context.Context) scraper.Outcome {
		out := scraper.Outcome{Brand: brand, State: scraper.StateDone, Attempted: len(locations)}
		for _, id := range locations {
			out.Records = append(out.Records, models.FlavorRecord{LocationID: id, Brand: brand, FlavorName: "Butter Pecan", Date: "2026-10-14"})
		}
		return out
	}}
}

func TestRunIsolatesPanickingBrand(t *testing.T) {
	scrapers := []Scraper{
		stubScraper{brand: "murfs", scrape: func(context.Context) scraper.Outcome { panic("browser crashed") }},
		okScraper("kopps", "kopps-brookfield", "kopps-glendale"),
	}

	report := New(scrapers, Options{}).Run(context.Background())

	require.Len(t, report.Outcomes, 2)
	require.Equal(t, "kopps", report.Outcomes[0].Brand)
	require.Equal(t, "murfs", report.Outcomes[1].Brand)
	require.Len(t, report.Records(), 2)
	require.Equal(t, []string{"murfs"}, report.EmptyBrands)
	require.Error(t, report.Outcomes[1].Reason)
}

func TestRunCollectsDegradedBrands(t *testing.T) {
	degraded := stubScraper{brand: "leons", scrape: func(context.Context) scraper.Outcome {
		return scraper.Outcome{
			Brand:     "leons",
			State:     scraper.StateDone,
			Attempted: 3,
			Records:   []models.FlavorRecord{{LocationID: "leons-west", Brand: "leons", FlavorName: "Mint Chip"}},
			Skipped: []scraper.Skip{
				{LocationID: "leons-south", Err: errors.New("timeout")},
				{LocationID: "leons-north", Err: errors.New("timeout")},
			},
		}
	}}
	empty := stubScraper{brand: "gilles", scrape: func(context.Context) scraper.Outcome {
		return scraper.Outcome{Brand: "gilles", State: scraper.StateEmpty, Reason: scraper.ErrNoLocations}
	}}

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	report := New([]Scraper{degraded, empty, okScraper("kopps", "kopps-1")}, Options{
		Now: func() time.Time { return now },
	}).Run(context.Background())

	require.Equal(t, now, report.GeneratedAt)
	require.Empty(t, report.EmptyBrands)
	require.Equal(t, []string{"gilles"}, report.InactiveBrands)
	require.Equal(t, []string{"leons"}, report.DegradedBrands)
	require.Equal(t, []string{"gilles", "kopps", "leons"}, []string{
		report.Outcomes[0].Brand, report.Outcomes[1].Brand, report.Outcomes[2].Brand,
	})
}

func TestRunSeparatesFailedFromInactive(t *testing.T) {
	failed := stubScraper{brand: "murfs", scrape: func(context.Context) scraper.Outcome {
		return scraper.Outcome{Brand: "murfs", State: scraper.StateDone, Attempted: 1, Reason: scraper.ErrNoFlavor}
	}}
	inactive := stubScraper{brand: "closed", scrape: func(context.Context) scraper.Outcome {
		return scraper.Outcome{Brand: "closed", State: scraper.StateEmpty, Reason: scraper.ErrNoLocations}
	}}

	report := New([]Scraper{failed, inactive}, Options{}).Run(context.Background())
	require.Equal(t, []string{"murfs"}, report.EmptyBrands)
	require.Equal(t, []string{"closed"}, report.InactiveBrands)
	require.Empty(t, report.DegradedBrands)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var live, peak atomic.Int32
	slow := func(brand string) stubScraper {
		return stubScraper{brand: brand, scrape: func(context.Context) scraper.Outcome {
			n := live.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			live.Add(-1)
			return scraper.Outcome{Brand: brand, Reason: scraper.ErrNoLocations}
		}}
	}

	var scrapers []Scraper
	for _, b := range []string{"a", "b", "c", "d", "e", "f"} {
		scrapers = append(scrapers, slow(b))
	}
	report := New(scrapers, Options{Concurrency: 2}).Run(context.Background())

	require.Len(t, report.Outcomes, 6)
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunPassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := stubScraper{brand: "kopps", scrape: func(ctx context.Context) scraper.Outcome {
		return scraper.Outcome{Brand: "kopps", Reason: ctx.Err()}
	}}
	report := New([]Scraper{s}, Options{}).Run(ctx)
	require.ErrorIs(t, report.Outcomes[0].Reason, context.Canceled)
}
