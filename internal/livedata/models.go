// Package livedata supplies the live conditions (disease, weather, air
// quality and emergency infrastructure) that a travel report is scored
// against, with caching in front of the configured provider.
package livedata

import (
	"errors"
	"strings"
	"time"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Live data errors.
var (
	ErrProviderUnavailable = errors.New("live data provider unavailable")
	ErrNoDataForDistrict   = errors.New("no live data for district")
	ErrInvalidQuery        = errors.New("invalid live data query")
)

// Query identifies the conditions needed for one trip.
type Query struct {
	FromDistrict string
	ToDistrict   string
	TravelDate   time.Time
}

// Validate reports ErrInvalidQuery when a district or the date is missing.
func (q Query) Validate() error {
	if strings.TrimSpace(q.FromDistrict) == "" || strings.TrimSpace(q.ToDistrict) == "" || q.TravelDate.IsZero() {
		return ErrInvalidQuery
	}
	return nil
}

// Key returns the cache key for the query. District names are matched
// case-insensitively and only the calendar date counts.
func (q Query) Key() string {
	return strings.ToLower(strings.TrimSpace(q.FromDistrict)) + "|" +
		strings.ToLower(strings.TrimSpace(q.ToDistrict)) + "|" +
		q.TravelDate.Format(travelrisk.DateLayout)
}

// QueryForTrip builds the query matching a trip.
func QueryForTrip(trip travelrisk.TripRequest) Query {
	return Query{
		FromDistrict: trip.FromDistrict,
		ToDistrict:   trip.ToDistrict,
		TravelDate:   trip.TravelDate,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Provider     string
}
