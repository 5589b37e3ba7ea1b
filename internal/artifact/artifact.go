// Package artifact builds and writes flavors.json, the file the map UI reads.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/registry"
)

type Artifact struct {
	GeneratedAt    string          `json:"generated_at"`
	GeneratedDate  string          `json:"generated_date"`
	FlavorCount    int             `json:"flavor_count"`
	DegradedBrands []string        `json:"degraded_brands"`
	EmptyBrands    []string        `json:"empty_brands"`
	Locations      []LocationGroup `json:"locations"`
}

// LocationGroup is one storefront with today's flavors. Distance is left to
// the consumer.
type LocationGroup struct {
	ID      string   `json:"id"`
	Brand   string   `json:"brand"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	URL     string   `json:"url"`
	Flavors []Flavor `json:"flavors"`
}

type Flavor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// Build groups records by location in brand then registry order. Locations
// without a flavor are left out. loc is the zone for generated_date.
func Build(report orchestrator.Report, reg *registry.Registry, loc *time.Location) Artifact {
	if loc == nil {
		loc = time.UTC
	}

	byLocation := make(map[string][]models.FlavorRecord)
	for _, rec := range report.Records() {
		byLocation[rec.LocationID] = append(byLocation[rec.LocationID], rec)
	}

	a := Artifact{
		GeneratedAt:    report.GeneratedAt.UTC().Format(time.RFC3339),
		GeneratedDate:  report.GeneratedAt.In(loc).Format(time.DateOnly),
		DegradedBrands: append([]string{}, report.DegradedBrands...),
		EmptyBrands:    append([]string{}, report.EmptyBrands...),
		Locations:      []LocationGroup{},
	}

	for _, brand := range reg.Brands() {
		for _, l := range reg.All(brand) {
			recs := byLocation[l.ID]
			if len(recs) == 0 {
				continue
			}
			group := LocationGroup{
				ID:      l.ID,
				Brand:   l.Brand,
				Name:    l.Name,
				Address: l.Address,
				Lat:     l.Lat,
				Lng:     l.Lng,
				URL:     l.URL,
			}
			for _, rec := range recs {
				group.Flavors = append(group.Flavors, Flavor{
					Name:        rec.FlavorName,
					Description: rec.Description,
					Date:        rec.Date,
				})
			}
			a.FlavorCount += len(group.Flavors)
			a.Locations = append(a.Locations, group)
		}
	}
	return a
}

// Write stores the artifact at path through a temp file and rename so
// readers never see a partial file. It returns the bytes written.
func Write(path string, a Artifact) ([]byte, error) {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".flavors-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return b, nil
}

// Read loads a previously written artifact.
func Read(path string) (Artifact, error) {
	var a Artifact
	b, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return a, fmt.Errorf("invalid artifact %s: %w", path, err)
	}
	return a, nil
}
