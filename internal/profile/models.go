// Package profile stores traveler profiles used to personalize travel
// reports.
//
// # Health Data
//
// Profiles hold health information (conditions, pregnancy, medications).
// They are keyed by a random identifier and carry no name, email or
// location. Allergies, vaccinations and medications are stored for
// completeness but are not read by scoring.
package profile

import (
	"errors"
	"time"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
)

// IDPrefix prefixes every profile identifier.
const IDPrefix = "prf_"

// Profile is a stored traveler profile.
type Profile struct {
	// ID is the unique profile identifier (format: prf_XXXX).
	ID string

	// Traveler holds the attributes passed to scoring.
	Traveler travelrisk.TravelerProfile

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input carries the writable fields of a profile.
type Input struct {
	Age          int
	Sex          string
	Conditions   []string
	Pregnant     bool
	Allergies    []string
	Vaccinations []string
	Medications  []string
}

// copyProfile returns a deep copy so callers cannot mutate stored slices.
func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	cpy := *p
	cpy.Traveler.Conditions = cloneStrings(p.Traveler.Conditions)
	cpy.Traveler.Allergies = cloneStrings(p.Traveler.Allergies)
	cpy.Traveler.Vaccinations = cloneStrings(p.Traveler.Vaccinations)
	cpy.Traveler.Medications = cloneStrings(p.Traveler.Medications)
	return &cpy
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
