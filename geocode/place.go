package geocode

import "fmt"

// Tier names, also used as metric labels.
const (
	TierOverride  = "override"
	TierRegional  = "regional"
	TierCountry   = "country"
	TierQualified = "qualified"
	TierGlobal    = "global"
	TierCache     = "cache"
)

// Place is a resolved location.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	// Tier records which lookup produced the place.
	Tier string `json:"tier"`
}

// Outcome classifies a lookup.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case TransportError:
		return "transport_error"
	}
	return "not_found"
}

// Result is the outcome of one search or of a full resolution.
type Result struct {
	Outcome Outcome
	Place   Place
	Err     error
}

func found(p Place) Result           { return Result{Outcome: Found, Place: p} }
func transportError(err error) Result { return Result{Outcome: TransportError, Err: err} }

func (r Result) String() string {
	switch r.Outcome {
	case Found:
		return fmt.Sprintf("found %s (%.4f, %.4f) via %s", r.Place.Name, r.Place.Lat, r.Place.Lng, r.Place.Tier)
	case TransportError:
		return fmt.Sprintf("transport error: %v", r.Err)
	}
	return "not found"
}
