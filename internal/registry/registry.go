// Package registry is the read-only catalog of storefronts grouped by brand.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

// Registry is safe for concurrent reads; nothing mutates it after construction.
type Registry struct {
	source  string
	brands  []string
	byBrand map[string][]models.Location
}

// Load reads and validates a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry at '%s': %w", path, err)
	}
	return parse(path, data)
}

// Parse validates registry YAML keyed by brand.
func Parse(data []byte) (*Registry, error) {
	return parse("registry", data)
}

func parse(source string, data []byte) (*Registry, error) {
	var raw map[string][]models.Location
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &scrapeerr.ConfigError{Source: source, Index: -1, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}

	var locs []models.Location
	brands := make([]string, 0, len(raw))
	for brand := range raw {
		brands = append(brands, brand)
	}
	sort.Strings(brands)
	for _, brand := range brands {
		for _, loc := range raw[brand] {
			loc.Brand = brand
			locs = append(locs, loc)
		}
	}

	reg, err := build(source, locs)
	if err != nil {
		return nil, err
	}
	// brands declared with an empty list still count as known brands
	for _, brand := range brands {
		if _, ok := reg.byBrand[brand]; !ok {
			reg.byBrand[brand] = nil
			reg.brands = append(reg.brands, brand)
		}
	}
	sort.Strings(reg.brands)
	return reg, nil
}

// New builds a registry from already-decoded locations. Each location must
// carry its Brand.
func New(locs []models.Location) (*Registry, error) {
	return build("registry", locs)
}

func build(source string, locs []models.Location) (*Registry, error) {
	reg := &Registry{
		source:  source,
		byBrand: make(map[string][]models.Location),
	}
	seen := make(map[string]string)
	index := make(map[string]int)

	for _, loc := range locs {
		loc.ID = strings.TrimSpace(loc.ID)
		loc.Name = strings.TrimSpace(loc.Name)
		i := index[loc.Brand]
		index[loc.Brand]++

		fail := func(field, reason string) error {
			return &scrapeerr.ConfigError{Source: source, Brand: loc.Brand, Index: i, Field: field, Reason: reason}
		}

		switch {
		case strings.TrimSpace(loc.Brand) == "":
			return nil, fail("brand", "is required")
		case loc.ID == "":
			return nil, fail("id", "is required")
		case loc.Name == "":
			return nil, fail("name", "is required")
		case (loc.Lat == nil) != (loc.Lng == nil):
			return nil, fail("lat/lng", "must both be set or both be absent")
		}
		if other, dup := seen[loc.ID]; dup {
			return nil, fail("id", fmt.Sprintf("duplicates %q already declared under %s", loc.ID, other))
		}
		seen[loc.ID] = loc.Brand

		if _, ok := reg.byBrand[loc.Brand]; !ok {
			reg.brands = append(reg.brands, loc.Brand)
		}
		reg.byBrand[loc.Brand] = append(reg.byBrand[loc.Brand], loc)
	}

	sort.Strings(reg.brands)
	return reg, nil
}

// LocationsFor returns the enabled locations of brand in declaration order.
func (r *Registry) LocationsFor(brand string) []models.Location {
	var out []models.Location
	for _, loc := range r.byBrand[brand] {
		if loc.IsEnabled() {
			out = append(out, loc)
		}
	}
	return out
}

// All returns every location of brand, disabled ones included.
func (r *Registry) All(brand string) []models.Location {
	return append([]models.Location(nil), r.byBrand[brand]...)
}

// Lookup finds a location by id across all brands.
func (r *Registry) Lookup(id string) (models.Location, bool) {
	for _, brand := range r.brands {
		for _, loc := range r.byBrand[brand] {
			if loc.ID == id {
				return loc, true
			}
		}
	}
	return models.Location{}, false
}

// Brands returns the brand keys in sorted order.
func (r *Registry) Brands() []string {
	return append([]string(nil), r.brands...)
}
