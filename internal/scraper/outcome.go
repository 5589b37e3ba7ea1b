package scraper

import (
	"errors"

	"mspro-labs/scoop-scout/internal/models"
)

// State is a brand scraper's position in its run.
type State int

const (
	StateStart State = iota
	StateLoadingLocations
	StateEmpty
	StateScraping
	StateNormalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLoadingLocations:
		return "loading_locations"
	case StateEmpty:
		return "empty"
	case StateScraping:
		return "scraping"
	case StateNormalizing:
		return "normalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

var (
	ErrNoLocations = errors.New("no enabled locations")
	ErrNoFlavor    = errors.New("no flavor found")
	ErrStaleFlavor = errors.New("page is not for today")
)

// Skip records a location that produced no record and why.
type Skip struct {
	LocationID string
	Err        error
}

// Outcome is what one brand run produced. Records is either non-empty or
// Reason explains why not; partial records never appear.
type Outcome struct {
	Brand     string
	State     State
	Records   []models.FlavorRecord
	Reason    error
	Attempted int
	Skipped   []Skip
}

// Degraded reports a brand that produced records but lost some locations.
func (o Outcome) Degraded() bool {
	return len(o.Records) > 0 && len(o.Skipped) > 0
}

// Inactive reports a brand with no enabled locations. It produced nothing
// because nothing was asked of it.
func (o Outcome) Inactive() bool {
	return o.State == StateEmpty || errors.Is(o.Reason, ErrNoLocations)
}
