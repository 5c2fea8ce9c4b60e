// Package travelrisk scores the health risk of a planned trip between two
// districts.
//
// The scoring is a pure function of a TripRequest, a TravelerProfile and a
// LiveConditions snapshot. It combines four factor scores (disease, weather,
// air quality, route hazard) into a weighted base score, scales it by a
// profile sensitivity multiplier and classifies the result into a band.
// The package holds no state and is safe for concurrent use.
package travelrisk

import (
	"time"
)

// Mode is the means of travel for a trip.
type Mode string

const (
	ModeRoad Mode = "road"
	ModeRail Mode = "rail"
	ModeAir  Mode = "air"
)

// Sex is the traveler's sex as recorded in the profile.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "O"
)

// Band is the risk classification of a trip.
type Band string

const (
	BandLow      Band = "LOW"
	BandModerate Band = "MODERATE"
	BandHigh     Band = "HIGH"
)

// Badge returns the color marker shown next to the band.
func (b Band) Badge() string {
	switch b {
	case BandLow:
		return "🟢"
	case BandModerate:
		return "🟠"
	default:
		return "🔴"
	}
}

// Condition tags recognized by the scoring rules. Other tags are accepted
// and carried but do not influence the score.
const (
	ConditionAsthma   = "asthma"
	ConditionCOPD     = "copd"
	ConditionDiabetes = "diabetes"
	ConditionCVD      = "cvd"
)

// TripRequest describes one planned journey.
type TripRequest struct {
	FromDistrict string
	ToDistrict   string
	// TravelDate is a calendar date; only year, month and day are used.
	TravelDate time.Time
	Mode       Mode
}

// TravelerProfile holds the traveler attributes used for personalization.
type TravelerProfile struct {
	Age int
	Sex Sex

	// Conditions holds lowercase condition tags such as "asthma" or "cvd".
	Conditions []string

	Pregnant bool

	// Not used by scoring.
	Allergies    []string
	Vaccinations []string
	Medications  []string
}

// HasCondition reports whether the profile carries the given condition tag.
func (p TravelerProfile) HasCondition(tag string) bool {
	for _, c := range p.Conditions {
		if c == tag {
			return true
		}
	}
	return false
}

func (p TravelerProfile) respiratory() bool {
	return p.HasCondition(ConditionAsthma) || p.HasCondition(ConditionCOPD)
}

// LiveConditions is a snapshot of external signals for one trip.
type LiveConditions struct {
	Disease        DiseaseConditions
	Weather        WeatherConditions
	AQI            AirQuality
	Infrastructure Infrastructure
}

// DiseaseConditions holds outbreak signals at both ends of the trip.
type DiseaseConditions struct {
	To   DestinationDisease
	From OriginDisease
}

// DestinationDisease holds outbreak signals for the destination district.
type DestinationDisease struct {
	DengueWeeklyCases int
	TyphoidCluster    bool
	FluTrend          string
}

// OriginDisease holds outbreak signals for the origin district.
type OriginDisease struct {
	DengueWeeklyCases int
}

// WeatherConditions holds the destination forecast and route hazards.
type WeatherConditions struct {
	To    DestinationWeather
	Route RouteWeather
}

// DestinationWeather is the 24h forecast for the destination district.
type DestinationWeather struct {
	RainMm24h float64
	HeatIndex float64
	Alerts    []string
}

// RouteWeather lists weather hazards along the route.
type RouteWeather struct {
	FloodProneSegments []string
}

// AirQuality holds AQI readings for the trip.
type AirQuality struct {
	To       float64
	From     float64
	RouteMax float64
}

// Max returns the worst AQI reading across origin, destination and route.
func (a AirQuality) Max() float64 {
	return max(a.To, a.From, a.RouteMax)
}

// Infrastructure lists emergency services at the destination, nearest first.
type Infrastructure struct {
	HospitalsTo  []Hospital
	PharmaciesTo []Pharmacy
	Ambulance    string
}

// Hospital is an emergency care facility.
type Hospital struct {
	Name   string
	Phone  string
	Is24x7 bool
	ETAMin float64
}

// Pharmacy is a dispensing pharmacy.
type Pharmacy struct {
	Name   string
	Phone  string
	Is24x7 bool
}

// Assessment holds the intermediate values behind a report.
type Assessment struct {
	// Factor scores: disease, weather, air quality (0-3) and route hazard (0-1).
	DR int
	WR int
	AR int
	RH int

	AQIMax float64

	// PSM is the profile sensitivity multiplier, in [1.0, 1.6].
	PSM float64

	BaseScore         float64
	PersonalizedScore float64
}

// TravelReport is the computed advisory for a trip.
type TravelReport struct {
	Header     string
	RiskBadge  string
	Band       Band
	Reasons    []string
	Advice     []string
	Emergency  Emergency
	Checklist  Checklist
	Assessment Assessment
}

// Emergency lists the primary emergency contacts at the destination.
type Emergency struct {
	Hospital  string
	Pharmacy  string
	Ambulance string
}

// Checklist groups preparation items by trip phase.
type Checklist struct {
	Before    []string
	OnWay     []string
	OnArrival []string
}
