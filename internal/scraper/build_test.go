package scraper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"mspro-labs/scoop-scout/internal/config"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

func TestBuildSelectsAdapterByStrategy(t *testing.T) {
	reg := testRegistry(t)

	static := testBrand(t, "kopps")
	social := testBrand(t, "leons")
	social.Strategy = config.StrategySocial

	// leons-north and leons-west have no feed page
	_, err := Build([]config.Brand{static, social}, reg, nil, nil)
	var cfgErr *scrapeerr.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "leons", cfgErr.Brand)
	require.Equal(t, "facebook", cfgErr.Field)
	require.Equal(t, 1, cfgErr.Index)

	dynamic := testBrand(t, "leons")
	dynamic.Strategy = config.StrategyDynamic
	scrapers, err := Build([]config.Brand{static, dynamic}, reg, nil, nil)
	require.NoError(t, err)
	require.Len(t, scrapers, 2)
	require.Equal(t, "kopps", scrapers[0].Brand())
	require.IsType(t, &StaticAdapter{}, scrapers[0].adapter)
	require.IsType(t, &DynamicAdapter{}, scrapers[1].adapter)
}

func TestBuildIgnoresDisabledLocations(t *testing.T) {
	reg, err := registry.Parse([]byte(`
bigdeal:
  - id: bigdeal-1
    name: Big Deal
    facebook: https://facebook.example/bigdeal
  - id: bigdeal-2
    name: Big Deal Two
    enabled: false
`))
	require.NoError(t, err)

	b := testBrand(t, "bigdeal")
	b.Strategy = config.StrategySocial
	scrapers, err := Build([]config.Brand{b}, reg, nil, nil)
	require.NoError(t, err)
	require.IsType(t, &SocialAdapter{}, scrapers[0].adapter)
}
