package travelrisk

import (
	"strings"
)

// Factor weights of the base score.
const (
	weightDisease = 0.4
	weightWeather = 0.3
	weightAir     = 0.2
	weightRoute   = 0.1
)

// Band upper bounds, inclusive.
const (
	LowMaxScore      = 15.0
	ModerateMaxScore = 27.0
)

// MaxSensitivity caps the profile sensitivity multiplier.
const MaxSensitivity = 1.6

const maxFactor = 3

// Score computes the travel report for a trip. It returns a
// *ValidationError, and no report, when any input is malformed.
func Score(trip TripRequest, profile TravelerProfile, live LiveConditions) (*TravelReport, error) {
	if err := Validate(trip, profile, live); err != nil {
		return nil, err
	}

	a := Assess(profile, live)
	band := Classify(a.PersonalizedScore)

	return &TravelReport{
		Header:     header(trip),
		RiskBadge:  band.Badge() + " " + string(band),
		Band:       band,
		Reasons:    reasons(trip, live, a),
		Advice:     advice(trip, profile, live, a),
		Emergency:  emergency(live.Infrastructure),
		Checklist:  checklist(live, a),
		Assessment: a,
	}, nil
}

// Assess computes factor scores, the sensitivity multiplier and the
// resulting scores. Inputs are assumed valid.
func Assess(profile TravelerProfile, live LiveConditions) Assessment {
	aqiMax := live.AQI.Max()
	a := Assessment{
		DR:     DiseaseRisk(live.Disease.To),
		WR:     WeatherRisk(live.Weather.To),
		AR:     AirRisk(aqiMax),
		RH:     RouteHazard(live.Weather.Route),
		AQIMax: aqiMax,
		PSM:    SensitivityMultiplier(profile, aqiMax, live.Weather.To.RainMm24h, live.Weather.To.HeatIndex),
	}
	a.BaseScore = BaseScore(a.DR, a.WR, a.AR, a.RH)
	a.PersonalizedScore = a.BaseScore * a.PSM
	return a
}

// DiseaseRisk scores dengue case load, raised by one for a typhoid cluster.
func DiseaseRisk(d DestinationDisease) int {
	cases := d.DengueWeeklyCases
	dr := 0
	switch {
	case cases >= 60:
		dr = 3
	case cases >= 30:
		dr = 2
	case cases >= 10:
		dr = 1
	}
	if d.TyphoidCluster {
		dr++
	}
	return min(dr, maxFactor)
}

// WeatherRisk scores 24h rainfall, flood alerts and heat index.
func WeatherRisk(w DestinationWeather) int {
	rain := w.RainMm24h
	wr := 0
	switch {
	case rain >= 100:
		wr = 3
	case rain >= 50:
		wr = 2
	case rain >= 20:
		wr = 1
	}

	for _, alert := range w.Alerts {
		if strings.Contains(alert, "flood") {
			wr = max(wr, 2)
			break
		}
	}

	// Heat bumps apply in order, each capped.
	heat := w.HeatIndex
	if heat >= 32 && heat < 40 {
		wr = min(maxFactor, wr+1)
	}
	if heat >= 40 {
		wr = min(maxFactor, wr+2)
	}
	return wr
}

// AirRisk scores the worst AQI reading on the trip. A reading of exactly
// 201 falls between tiers 1 and 2 and scores 0.
func AirRisk(aqiMax float64) int {
	switch {
	case aqiMax > 100 && aqiMax <= 200:
		return 1
	case aqiMax > 201 && aqiMax <= 300:
		return 2
	case aqiMax > 300:
		return 3
	}
	return 0
}

// RouteHazard is 1 when any route segment is flood prone.
func RouteHazard(r RouteWeather) int {
	if len(r.FloodProneSegments) > 0 {
		return 1
	}
	return 0
}

// SensitivityMultiplier scales risk by traveler vulnerability. Factors
// compound and the product is capped once at MaxSensitivity.
func SensitivityMultiplier(p TravelerProfile, aqiMax, rainMm24h, heatIndex float64) float64 {
	psm := 1.0
	if p.Age >= 60 {
		psm *= 1.2
	}
	if p.Pregnant {
		psm *= 1.3
	}
	if p.respiratory() && aqiMax > 100 {
		psm *= 1.3
	}
	if p.HasCondition(ConditionDiabetes) && rainMm24h >= 50 {
		psm *= 1.2
	}
	if p.HasCondition(ConditionCVD) && heatIndex >= 40 {
		psm *= 1.2
	}
	return min(psm, MaxSensitivity)
}

// BaseScore weights the factor scores onto a 0-28 scale. The route hazard
// factor tops out at 1, so 28 is the highest reachable base score.
func BaseScore(dr, wr, ar, rh int) float64 {
	// Explicit conversions keep each product rounded before the sum, so no
	// fused multiply-add changes the result on some architectures.
	sum := float64(float64(dr) * weightDisease)
	sum += float64(float64(wr) * weightWeather)
	sum += float64(float64(ar) * weightAir)
	sum += float64(float64(rh) * weightRoute)
	return sum * 10
}

// Classify maps a personalized score to its band.
func Classify(score float64) Band {
	switch {
	case score <= LowMaxScore:
		return BandLow
	case score <= ModerateMaxScore:
		return BandModerate
	default:
		return BandHigh
	}
}
