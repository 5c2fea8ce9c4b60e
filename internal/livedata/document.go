package livedata

import (
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Document is the JSON form of live conditions shared by feeds and the
// HTTP API. Required readings are pointers so an absent field can be told
// apart from a zero reading; call Validate before Conditions.
type Document struct {
	Disease        DiseaseDocument        `json:"disease"`
	Weather        WeatherDocument        `json:"weather"`
	AQI            AQIDocument            `json:"aqi"`
	Infrastructure InfrastructureDocument `json:"infrastructure"`
}

type DiseaseDocument struct {
	To struct {
		DengueWeeklyCases *int   `json:"dengue_weekly_cases"`
		TyphoidCluster    bool   `json:"typhoid_cluster,omitempty"`
		FluTrend          string `json:"flu_trend,omitempty"`
	} `json:"to"`
	From struct {
		DengueWeeklyCases int `json:"dengue_weekly_cases"`
	} `json:"from"`
}

type WeatherDocument struct {
	To struct {
		RainMm24h *float64 `json:"rain_mm_24h"`
		HeatIndex float64  `json:"heat_index,omitempty"`
		Alerts    []string `json:"alerts,omitempty"`
	} `json:"to"`
	Route struct {
		FloodProneSegments []string `json:"flood_prone_segments,omitempty"`
	} `json:"route"`
}

type AQIDocument struct {
	To       *float64 `json:"to"`
	From     *float64 `json:"from"`
	RouteMax *float64 `json:"route_max"`
}

// InfrastructureDocument lists emergency services. An empty list is a
// valid reading; a missing one is not.
type InfrastructureDocument struct {
	HospitalsTo  []HospitalDocument `json:"hospitals_to"`
	PharmaciesTo []PharmacyDocument `json:"pharmacies_to"`
	Ambulance    *string            `json:"ambulance"`
}

type HospitalDocument struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Is24x7 bool    `json:"is_24x7"`
	ETAMin float64 `json:"eta_min"`
}

type PharmacyDocument struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Is24x7 bool   `json:"is_24x7"`
}

// Validate reports every required reading absent from the document as a
// *travelrisk.ValidationError with "live." field names. Value ranges are
// checked later by travelrisk.Validate.
func (d *Document) Validate() error {
	var errs []travelrisk.FieldError
	required := func(present bool, field string) {
		if !present {
			errs = append(errs, travelrisk.FieldError{Field: "live." + field, Message: "is required"})
		}
	}

	required(d.Disease.To.DengueWeeklyCases != nil, "disease.to.dengue_weekly_cases")
	required(d.Weather.To.RainMm24h != nil, "weather.to.rain_mm_24h")
	required(d.AQI.To != nil, "aqi.to")
	required(d.AQI.From != nil, "aqi.from")
	required(d.AQI.RouteMax != nil, "aqi.route_max")
	required(d.Infrastructure.HospitalsTo != nil, "infrastructure.hospitals_to")
	required(d.Infrastructure.PharmaciesTo != nil, "infrastructure.pharmacies_to")
	required(d.Infrastructure.Ambulance != nil, "infrastructure.ambulance")

	if len(errs) > 0 {
		return &travelrisk.ValidationError{Errors: errs}
	}
	return nil
}

// Conditions converts the document to the scoring model. Absent readings
// convert to zero, so callers validate first.
func (d *Document) Conditions() travelrisk.LiveConditions {
	var c travelrisk.LiveConditions

	c.Disease.To = travelrisk.DestinationDisease{
		DengueWeeklyCases: deref(d.Disease.To.DengueWeeklyCases),
		TyphoidCluster:    d.Disease.To.TyphoidCluster,
		FluTrend:          d.Disease.To.FluTrend,
	}
	c.Disease.From.DengueWeeklyCases = d.Disease.From.DengueWeeklyCases

	c.Weather.To = travelrisk.DestinationWeather{
		RainMm24h: deref(d.Weather.To.RainMm24h),
		HeatIndex: d.Weather.To.HeatIndex,
		Alerts:    append([]string(nil), d.Weather.To.Alerts...),
	}
	c.Weather.Route.FloodProneSegments = append([]string(nil), d.Weather.Route.FloodProneSegments...)

	c.AQI = travelrisk.AirQuality{
		To:       deref(d.AQI.To),
		From:     deref(d.AQI.From),
		RouteMax: deref(d.AQI.RouteMax),
	}

	c.Infrastructure.Ambulance = deref(d.Infrastructure.Ambulance)
	for _, h := range d.Infrastructure.HospitalsTo {
		c.Infrastructure.HospitalsTo = append(c.Infrastructure.HospitalsTo, travelrisk.Hospital(h))
	}
	for _, p := range d.Infrastructure.PharmaciesTo {
		c.Infrastructure.PharmaciesTo = append(c.Infrastructure.PharmaciesTo, travelrisk.Pharmacy(p))
	}
	return c
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func ptr[T any](v T) *T {
	return &v
}

// NewDocument converts scoring conditions to their JSON form.
func NewDocument(c travelrisk.LiveConditions) *Document {
	d := &Document{}

	d.Disease.To.DengueWeeklyCases = ptr(c.Disease.To.DengueWeeklyCases)
	d.Disease.To.TyphoidCluster = c.Disease.To.TyphoidCluster
	d.Disease.To.FluTrend = c.Disease.To.FluTrend
	d.Disease.From.DengueWeeklyCases = c.Disease.From.DengueWeeklyCases

	d.Weather.To.RainMm24h = ptr(c.Weather.To.RainMm24h)
	d.Weather.To.HeatIndex = c.Weather.To.HeatIndex
	d.Weather.To.Alerts = append([]string(nil), c.Weather.To.Alerts...)
	d.Weather.Route.FloodProneSegments = append([]string(nil), c.Weather.Route.FloodProneSegments...)

	d.AQI = AQIDocument{To: ptr(c.AQI.To), From: ptr(c.AQI.From), RouteMax: ptr(c.AQI.RouteMax)}

	d.Infrastructure.Ambulance = ptr(c.Infrastructure.Ambulance)
	d.Infrastructure.HospitalsTo = make([]HospitalDocument, 0, len(c.Infrastructure.HospitalsTo))
	for _, h := range c.Infrastructure.HospitalsTo {
		d.Infrastructure.HospitalsTo = append(d.Infrastructure.HospitalsTo, HospitalDocument(h))
	}
	d.Infrastructure.PharmaciesTo = make([]PharmacyDocument, 0, len(c.Infrastructure.PharmaciesTo))
	for _, p := range c.Infrastructure.PharmaciesTo {
		d.Infrastructure.PharmaciesTo = append(d.Infrastructure.PharmaciesTo, PharmacyDocument(p))
	}
	return d
}
