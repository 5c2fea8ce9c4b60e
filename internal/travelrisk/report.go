package travelrisk

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// List caps.
const (
	MaxReasons = 3
	MaxAdvice  = 6
)

// NotAvailable is reported for an emergency service with no known entry.
const NotAvailable = "Not available"

// HeaderDateLayout renders travel dates as "16 Mar 2025".
const HeaderDateLayout = "02 Jan 2006"

// Advice texts.
const (
	AdviceDengue       = "Wear long-sleeve clothes & use mosquito repellent (10–30% DEET). Avoid outdoors during evening hours."
	AdviceTyphoid      = "Drink only boiled or bottled water. Avoid raw salads and street food."
	AdviceHeavyRain    = "Use non-slip footwear. Keep medicines and documents in a waterproof pouch."
	AdviceDiabeticFoot = "Diabetic foot care is crucial; keep dressings dry."
	AdviceRespiratory  = "Carry your inhaler and spacer. Consider wearing an N95 mask."
	AdviceHeat         = "Avoid travel between 12-4 PM. Stay hydrated with ORS and take breaks in shade."
	AdviceRail         = "Carry a personal bedsheet & hand sanitizer. Check IRCTC for delay alerts."
	AdviceAirResp      = "Use a saline nasal spray. Discuss pre-travel bronchodilator plan with your doctor."
)

// Checklist texts.
const (
	ChecklistRainGear      = "Raincoat/umbrella & waterproof pouch"
	ChecklistWindowsClosed = "Keep vehicle windows closed or use AC in high mosquito-risk zones"
	ChecklistAvoidFlood    = "Avoid flooded patches; follow official advisories and detours"
	ChecklistHotFood       = "Eat only hot, freshly cooked food from trusted places"
)

// baseBefore is copied into every report; never append to it directly.
var baseBefore = [...]string{
	"Repellent",
	"ORS sachets & bottled water",
	"First-aid kit & personal medications (with buffer supply)",
	"IDs, insurance, prescriptions (digital & paper copy)",
	"Fully charged phone & power bank",
}

var baseOnArrival = [...]string{
	"Inspect room for mosquito entry points; use nets if available",
	"Self-monitor for symptoms like fever, rash, or headache for 3-7 days post-arrival and seek care if needed",
}

func header(trip TripRequest) string {
	// A Caser is stateful, so one is created per call.
	mode := cases.Title(language.English).String(string(trip.Mode))
	return fmt.Sprintf("Trip: %s → %s | Date: %s | Mode: %s",
		trip.FromDistrict, trip.ToDistrict, trip.TravelDate.Format(HeaderDateLayout), mode)
}

// formatNumber renders a reading the way a report reader expects: 82, 82.5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func reasons(trip TripRequest, live LiveConditions, a Assessment) []string {
	out := make([]string, 0, 5)
	if a.DR >= 2 {
		out = append(out, fmt.Sprintf("Dengue surge in %s (%d cases last week)",
			trip.ToDistrict, live.Disease.To.DengueWeeklyCases))
	}
	if live.Disease.To.TyphoidCluster {
		out = append(out, "Active typhoid cluster reported")
	}
	if a.WR >= 2 {
		out = append(out, "Heavy rainfall forecast: "+formatNumber(live.Weather.To.RainMm24h)+" mm")
	}
	if segments := live.Weather.Route.FloodProneSegments; len(segments) > 0 {
		out = append(out, "Waterlogging risk on "+segments[0])
	}
	if a.AR >= 1 {
		out = append(out, "High Air Quality Index (AQI "+formatNumber(a.AQIMax)+") expected")
	}
	return truncate(out, MaxReasons)
}

func advice(trip TripRequest, profile TravelerProfile, live LiveConditions, a Assessment) []string {
	rain := live.Weather.To.RainMm24h
	out := make([]string, 0, 8)
	if a.DR >= 2 {
		out = append(out, AdviceDengue)
	}
	if live.Disease.To.TyphoidCluster {
		out = append(out, AdviceTyphoid)
	}
	if rain >= 50 {
		out = append(out, AdviceHeavyRain)
		if profile.HasCondition(ConditionDiabetes) {
			out = append(out, AdviceDiabeticFoot)
		}
	}
	if a.AQIMax > 150 && profile.respiratory() {
		out = append(out, AdviceRespiratory)
	}
	if live.Weather.To.HeatIndex >= 40 {
		out = append(out, AdviceHeat)
	}
	if trip.Mode == ModeRail {
		out = append(out, AdviceRail)
	}
	if trip.Mode == ModeAir && profile.respiratory() {
		out = append(out, AdviceAirResp)
	}
	return truncate(out, MaxAdvice)
}

func emergency(infra Infrastructure) Emergency {
	e := Emergency{
		Hospital:  NotAvailable,
		Pharmacy:  NotAvailable,
		Ambulance: infra.Ambulance,
	}
	if len(infra.HospitalsTo) > 0 {
		h := infra.HospitalsTo[0]
		e.Hospital = fmt.Sprintf("%s (%s)", h.Name, h.Phone)
	}
	if len(infra.PharmaciesTo) > 0 {
		p := infra.PharmaciesTo[0]
		e.Pharmacy = fmt.Sprintf("%s (%s)", p.Name, p.Phone)
	}
	return e
}

func checklist(live LiveConditions, a Assessment) Checklist {
	before := append(make([]string, 0, len(baseBefore)+1), baseBefore[:]...)
	if live.Weather.To.RainMm24h >= 20 {
		before = append(before, ChecklistRainGear)
	}

	onWay := []string{}
	if a.DR >= 2 {
		onWay = append(onWay, ChecklistWindowsClosed)
	}
	if a.RH >= 1 {
		onWay = append(onWay, ChecklistAvoidFlood)
	}
	if live.Disease.To.TyphoidCluster {
		onWay = append(onWay, ChecklistHotFood)
	}

	return Checklist{
		Before:    before,
		OnWay:     onWay,
		OnArrival: append([]string(nil), baseOnArrival[:]...),
	}
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
