package scraper

import (
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/retry"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

// Build wires one BrandScraper per configured brand, choosing the adapter by
// strategy. Every enabled location must carry the address its strategy
// fetches.
func Build(brands []config.Brand, reg *registry.Registry, renderer Renderer, logger *zap.Logger, opts ...Option) ([]*BrandScraper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := retry.New(retry.DefaultPolicy, logger)

	configured := make(map[string]bool, len(brands))
	scrapers := make([]*BrandScraper, 0, len(brands))
	for _, b := range brands {
		configured[b.Key] = true
		if err := checkLocations(b, reg); err != nil {
			return nil, err
		}

		var adapter Adapter
		switch b.Strategy {
		case config.StrategyStatic:
			adapter = NewStaticAdapter(b.Selectors)
		case config.StrategyDynamic:
			adapter = NewDynamicAdapter(renderer, b.Selectors)
		case config.StrategySocial:
			adapter = NewSocialAdapter(renderer, b, logger)
		default:
			return nil, &scrapeerr.ConfigError{Source: "config", Brand: b.Key, Index: -1, Field: "strategy", Reason: "is not supported"}
		}

		brandOpts := append([]Option{WithLogger(logger)}, opts...)
		scrapers = append(scrapers, NewBrandScraper(b, reg, adapter, rc, brandOpts...))
	}

	for _, brand := range reg.Brands() {
		if !configured[brand] {
			logger.Warn("registry brand has no config entry, not scraping", zap.String("brand", brand))
		}
	}
	return scrapers, nil
}

func checkLocations(b config.Brand, reg *registry.Registry) error {
	field := "url"
	if b.Strategy == config.StrategySocial {
		field = "facebook"
	}
	for i, loc := range reg.All(b.Key) {
		if !loc.IsEnabled() {
			continue
		}
		addr := loc.URL
		if field == "facebook" {
			addr = loc.Facebook
		}
		if addr == "" {
			return &scrapeerr.ConfigError{
				Source: "locations",
				Brand:  b.Key,
				Index:  i,
				Field:  field,
				Reason: "is required for the " + string(b.Strategy) + " strategy",
			}
		}
	}
	return nil
}
