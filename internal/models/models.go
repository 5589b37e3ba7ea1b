package models

// Location is one storefront from the registry. Lat/Lng are nil when the
// location is unmapped.
type Location struct {
	ID       string   `yaml:"id"`
	Brand    string   `yaml:"-"`
	Name     string   `yaml:"name"`
	Address  string   `yaml:"address"`
	Lat      *float64 `yaml:"lat"`
	Lng      *float64 `yaml:"lng"`
	URL      string   `yaml:"url"`
	Facebook string   `yaml:"facebook"`
	Enabled  *bool    `yaml:"enabled"`
}

// IsEnabled treats a missing enabled flag as true.
func (l Location) IsEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// Mapped reports whether the location carries coordinates.
func (l Location) Mapped() bool {
	return l.Lat != nil && l.Lng != nil
}

// Fragment is what the extraction pipeline recovers from raw text.
type Fragment struct {
	FlavorName  string
	Description string
}

// FlavorRecord holds one extracted flavor of the day for a location.
type FlavorRecord struct {
	LocationID  string `json:"location_id"`
	Brand       string `json:"brand"`
	FlavorName  string `json:"flavor_name"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD in the shop's civil time
	SourceURL   string `json:"source_url"`
}
