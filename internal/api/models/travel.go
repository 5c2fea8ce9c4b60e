package models

import "github.com/tripguard/tripguard/internal/livedata"

// Trip is the trip section of a report request.
type Trip struct {
	FromDistrict string `json:"from_district"`
	ToDistrict   string `json:"to_district"`
	// TravelDate is YYYY-MM-DD.
	TravelDate string `json:"travel_date"`
	// Mode is one of road, rail, air.
	Mode string `json:"mode"`
}

// ReportRequest is the body of POST /v1/travel/reports. Either ProfileID
// or Profile is required; Profile wins when both are set. Live is optional
// and replaces fetched conditions.
type ReportRequest struct {
	Trip      Trip               `json:"trip"`
	ProfileID string             `json:"profileId,omitempty"`
	Profile   *ProfileInput      `json:"profile,omitempty"`
	Live      *livedata.Document `json:"live,omitempty"`
}

// Report is a generated travel report.
type Report struct {
	ReportID    string     `json:"reportId"`
	GeneratedAt Timestamp  `json:"generatedAt"`
	ProfileID   string     `json:"profileId,omitempty"`
	LiveSource  string     `json:"liveSource"`
	Header      string     `json:"header"`
	Risk        string     `json:"risk"`
	Band        string     `json:"band"`
	Reasons     []string   `json:"reasons"`
	Advice      []string   `json:"advice"`
	Emergency   Emergency  `json:"emergency"`
	Checklist   Checklist  `json:"checklist"`
	Assessment  Assessment `json:"assessment"`
}

// Emergency lists the primary emergency contacts.
type Emergency struct {
	Hospital  string `json:"hospital"`
	Pharmacy  string `json:"pharmacy"`
	Ambulance string `json:"ambulance"`
}

// Checklist groups preparation items by trip phase.
type Checklist struct {
	Before    []string `json:"before"`
	OnWay     []string `json:"on_way"`
	OnArrival []string `json:"on_arrival"`
}

// Assessment exposes the values behind the band.
type Assessment struct {
	DiseaseRisk       int     `json:"disease_risk"`
	WeatherRisk       int     `json:"weather_risk"`
	AirRisk           int     `json:"air_risk"`
	RouteHazard       int     `json:"route_hazard"`
	AQIMax            float64 `json:"aqi_max"`
	Sensitivity       float64 `json:"sensitivity_multiplier"`
	BaseScore         float64 `json:"base_score"`
	PersonalizedScore float64 `json:"personalized_score"`
}
