package static

import "github.com/tripguard/tripguard/internal/travelrisk"

// NationalAmbulance is the national emergency ambulance number in India.
const NationalAmbulance = "108"

// DefaultDistricts returns sample snapshots for a monsoon-season week.
func DefaultDistricts() []District {
	return []District{
		{
			Name:              "Mumbai",
			DengueWeeklyCases: 42,
			FluTrend:          "rising",
			RainMm24h:         64,
			HeatIndex:         33,
			Alerts:            []string{"IMD orange alert: heavy rain, localized flooding"},
			AQI:               88,
			Hospitals: []travelrisk.Hospital{
				{Name: "KEM Hospital", Phone: "022-24107000", Is24x7: true, ETAMin: 14},
				{Name: "Lilavati Hospital", Phone: "022-26751000", Is24x7: true, ETAMin: 22},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "Wellness Forever Dadar", Phone: "022-24300000", Is24x7: true},
			},
			Ambulance: NationalAmbulance,
		},
		{
			Name:              "Pune",
			DengueWeeklyCases: 18,
			RainMm24h:         22,
			HeatIndex:         29,
			AQI:               74,
			Hospitals: []travelrisk.Hospital{
				{Name: "Sassoon General Hospital", Phone: "020-26128000", Is24x7: true, ETAMin: 12},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "Noble Chemist", Phone: "020-26050000", Is24x7: true},
			},
			Ambulance: NationalAmbulance,
		},
		{
			Name:              "Thane",
			DengueWeeklyCases: 31,
			TyphoidCluster:    true,
			RainMm24h:         78,
			HeatIndex:         31,
			Alerts:            []string{"flood watch for low-lying wards"},
			AQI:               96,
			Hospitals: []travelrisk.Hospital{
				{Name: "Thane Civil Hospital", Phone: "022-25472581", Is24x7: true, ETAMin: 10},
			},
			Ambulance: NationalAmbulance,
		},
		{
			Name:              "Delhi",
			DengueWeeklyCases: 65,
			FluTrend:          "stable",
			RainMm24h:         8,
			HeatIndex:         42,
			AQI:               228,
			Hospitals: []travelrisk.Hospital{
				{Name: "AIIMS New Delhi", Phone: "011-26588500", Is24x7: true, ETAMin: 18},
				{Name: "Safdarjung Hospital", Phone: "011-26165060", Is24x7: true, ETAMin: 20},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "Apollo Pharmacy Green Park", Phone: "011-26850000", Is24x7: true},
			},
			Ambulance: "102",
		},
		{
			Name:              "Jaipur",
			DengueWeeklyCases: 6,
			RainMm24h:         0,
			HeatIndex:         41,
			AQI:               142,
			Hospitals: []travelrisk.Hospital{
				{Name: "SMS Hospital", Phone: "0141-2518291", Is24x7: true, ETAMin: 15},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "Jaipur Medicos", Phone: "0141-2370000"},
			},
			Ambulance: NationalAmbulance,
		},
		{
			Name:              "Bengaluru Urban",
			DengueWeeklyCases: 12,
			RainMm24h:         18,
			HeatIndex:         27,
			AQI:               61,
			Hospitals: []travelrisk.Hospital{
				{Name: "Victoria Hospital", Phone: "080-26701150", Is24x7: true, ETAMin: 16},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "MedPlus Jayanagar", Phone: "080-26630000", Is24x7: true},
			},
			Ambulance: NationalAmbulance,
		},
		{
			Name:              "Chennai",
			DengueWeeklyCases: 27,
			RainMm24h:         112,
			HeatIndex:         36,
			Alerts:            []string{"cyclone advisory", "coastal flood warning"},
			AQI:               79,
			Hospitals: []travelrisk.Hospital{
				{Name: "Rajiv Gandhi Government General Hospital", Phone: "044-25305000", Is24x7: true, ETAMin: 17},
			},
			Pharmacies: []travelrisk.Pharmacy{
				{Name: "Apollo Pharmacy Mylapore", Phone: "044-24980000", Is24x7: true},
			},
			Ambulance: NationalAmbulance,
		},
	}
}

// DefaultRoutes returns sample route hazards between DefaultDistricts.
func DefaultRoutes() []Route {
	return []Route{
		{From: "Mumbai", To: "Pune", FloodProneSegments: []string{"Khandala ghat section", "Lonavala underpass"}, AQIMax: 102},
		{From: "Mumbai", To: "Thane", FloodProneSegments: []string{"Kalwa bridge approach"}},
		{From: "Delhi", To: "Jaipur", AQIMax: 265},
		{From: "Bengaluru Urban", To: "Chennai", FloodProneSegments: []string{"Poonamallee high road"}},
	}
}
