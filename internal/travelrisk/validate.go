package travelrisk

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when an input is missing a required field or
// holds a value outside its domain. No scoring happens when it is returned.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator accumulates field errors.
type validator struct {
	errs []FieldError
}

func (v *validator) add(field, msg string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}

func (v *validator) nonNegative(field string, value float64) {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		v.add(field, "must be a finite number")
	case value < 0:
		v.add(field, "must be >= 0")
	}
}

// Validate checks all three inputs and returns a *ValidationError listing
// every problem found, or nil.
func Validate(trip TripRequest, profile TravelerProfile, live LiveConditions) error {
	v := &validator{}
	validateTrip(v, trip)
	validateProfile(v, profile)
	validateLive(v, live)
	return v.err()
}

func validateTrip(v *validator, trip TripRequest) {
	if strings.TrimSpace(trip.FromDistrict) == "" {
		v.add("trip.from_district", "is required")
	}
	if strings.TrimSpace(trip.ToDistrict) == "" {
		v.add("trip.to_district", "is required")
	}
	if trip.TravelDate.IsZero() {
		v.add("trip.travel_date", "is required")
	}
	if !trip.Mode.Valid() {
		v.add("trip.mode", "must be one of road, rail, air")
	}
}

func validateProfile(v *validator, profile TravelerProfile) {
	if profile.Age < 0 {
		v.add("profile.age", "must be >= 0")
	}
	if !profile.Sex.Valid() {
		v.add("profile.sex", "must be one of M, F, O")
	}
}

func validateLive(v *validator, live LiveConditions) {
	if live.Disease.To.DengueWeeklyCases < 0 {
		v.add("live.disease.to.dengue_weekly_cases", "must be >= 0")
	}
	if live.Disease.From.DengueWeeklyCases < 0 {
		v.add("live.disease.from.dengue_weekly_cases", "must be >= 0")
	}
	v.nonNegative("live.weather.to.rain_mm_24h", live.Weather.To.RainMm24h)
	if math.IsNaN(live.Weather.To.HeatIndex) || math.IsInf(live.Weather.To.HeatIndex, 0) {
		v.add("live.weather.to.heat_index", "must be a finite number")
	}
	v.nonNegative("live.aqi.to", live.AQI.To)
	v.nonNegative("live.aqi.from", live.AQI.From)
	v.nonNegative("live.aqi.route_max", live.AQI.RouteMax)
}

// Valid reports whether m is a known travel mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeRoad, ModeRail, ModeAir:
		return true
	}
	return false
}

// Valid reports whether s is a known sex value.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// ParseMode parses a travel mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown travel mode %q", s)
	}
	return m, nil
}

// ParseSex parses a sex value, case-insensitively.
func ParseSex(s string) (Sex, error) {
	x := Sex(strings.ToUpper(strings.TrimSpace(s)))
	if !x.Valid() {
		return "", fmt.Errorf("unknown sex %q", s)
	}
	return x, nil
}

// DateLayout is the wire format of travel dates.
const DateLayout = "2006-01-02"

// ParseTravelDate parses a YYYY-MM-DD date as a UTC calendar date.
func ParseTravelDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("travel date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// NormalizeConditions lowercases and trims condition tags, dropping empty
// and duplicate entries while keeping first-seen order.
func NormalizeConditions(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
