// Package advisory generates travel reports. It resolves the traveler
// profile and live conditions for a trip, scores them with travelrisk and
// records report metrics.
package advisory

import (
	"time"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// ReportIDPrefix prefixes every report identifier.
const ReportIDPrefix = "rpt_"

// Live condition sources recorded on a Result.
const (
	SourceInline = "inline"
)

// Request asks for a report on one trip.
type Request struct {
	Trip travelrisk.TripRequest

	// ProfileID selects a stored profile. Ignored when Profile is set.
	ProfileID string

	// Profile supplies the traveler inline.
	Profile *travelrisk.TravelerProfile

	// Live supplies conditions inline. When nil they are fetched from the
	// live data service.
	Live *travelrisk.LiveConditions
}

// Result is a generated report.
type Result struct {
	ID          string
	GeneratedAt time.Time

	// ProfileID is set when a stored profile was used.
	ProfileID string

	// LiveSource is SourceInline or the name of the live data provider.
	LiveSource string

	Report *travelrisk.TravelReport
}
