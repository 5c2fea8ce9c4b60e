package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tripguard/tripguard/internal/advisory"
	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/api/response"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// maxReportBodyBytes caps the request body, inline live data included.
const maxReportBodyBytes = 1 << 20

// TravelHandler handles travel report endpoints.
type TravelHandler struct {
	advisory *advisory.Service
}

// NewTravelHandler creates a new TravelHandler.
func NewTravelHandler(svc *advisory.Service) *TravelHandler {
	return &TravelHandler{advisory: svc}
}

// CreateReport handles POST /v1/travel/reports.
func (h *TravelHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var body models.ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBodyBytes)).Decode(&body); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	req, fieldErrors := toAdvisoryRequest(&body)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrors)
		return
	}

	result, err := h.advisory.GenerateReport(r.Context(), req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toReportResponse(result))
}

// toAdvisoryRequest converts the wire request. Fields that cannot be parsed
// at all are reported here; range checks happen during scoring.
func toAdvisoryRequest(body *models.ReportRequest) (advisory.Request, []models.FieldError) {
	var errs []models.FieldError

	trip := travelrisk.TripRequest{
		FromDistrict: strings.TrimSpace(body.Trip.FromDistrict),
		ToDistrict:   strings.TrimSpace(body.Trip.ToDistrict),
	}

	if body.Trip.Mode == "" {
		errs = append(errs, models.FieldError{Field: "trip.mode", Message: "is required", Code: models.CodeRequired})
	} else if mode, err := travelrisk.ParseMode(body.Trip.Mode); err != nil {
		errs = append(errs, models.FieldError{Field: "trip.mode", Message: "must be one of road, rail, air", Code: models.CodeInvalid})
	} else {
		trip.Mode = mode
	}

	if body.Trip.TravelDate != "" {
		date, err := travelrisk.ParseTravelDate(body.Trip.TravelDate)
		if err != nil {
			errs = append(errs, models.FieldError{Field: "trip.travel_date", Message: "must be a date in YYYY-MM-DD format", Code: models.CodeInvalid})
		}
		trip.TravelDate = date
	}

	req := advisory.Request{Trip: trip, ProfileID: strings.TrimSpace(body.ProfileID)}

	if body.Profile != nil {
		traveler, perrs := inlineTraveler(body.Profile)
		errs = append(errs, perrs...)
		req.Profile = &traveler
	}

	if body.Live != nil {
		var verr *travelrisk.ValidationError
		if err := body.Live.Validate(); errors.As(err, &verr) {
			errs = append(errs, response.FieldErrors(verr)...)
		} else {
			live := body.Live.Conditions()
			req.Live = &live
		}
	}

	return req, errs
}

// inlineTraveler validates an inline profile the way stored profiles are
// validated, with field names under "profile.".
func inlineTraveler(body *models.ProfileInput) (travelrisk.TravelerProfile, []models.FieldError) {
	if body.Age == nil {
		return travelrisk.TravelerProfile{}, []models.FieldError{{
			Field: "profile.age", Message: "is required", Code: models.CodeRequired,
		}}
	}

	traveler, err := profile.ToTraveler(toProfileInput(body))
	var verr *travelrisk.ValidationError
	if errors.As(err, &verr) {
		fieldErrors := response.FieldErrors(verr)
		for i := range fieldErrors {
			fieldErrors[i].Field = "profile." + fieldErrors[i].Field
		}
		return travelrisk.TravelerProfile{}, fieldErrors
	}
	return traveler, nil
}

func toReportResponse(res *advisory.Result) models.Report {
	rep := res.Report
	a := rep.Assessment
	return models.Report{
		ReportID:    res.ID,
		GeneratedAt: models.Timestamp(res.GeneratedAt),
		ProfileID:   res.ProfileID,
		LiveSource:  res.LiveSource,
		Header:      rep.Header,
		Risk:        rep.RiskBadge,
		Band:        string(rep.Band),
		Reasons:     nonNil(rep.Reasons),
		Advice:      nonNil(rep.Advice),
		Emergency: models.Emergency{
			Hospital:  rep.Emergency.Hospital,
			Pharmacy:  rep.Emergency.Pharmacy,
			Ambulance: rep.Emergency.Ambulance,
		},
		Checklist: models.Checklist{
			Before:    nonNil(rep.Checklist.Before),
			OnWay:     nonNil(rep.Checklist.OnWay),
			OnArrival: nonNil(rep.Checklist.OnArrival),
		},
		Assessment: models.Assessment{
			DiseaseRisk:       a.DR,
			WeatherRisk:       a.WR,
			AirRisk:           a.AR,
			RouteHazard:       a.RH,
			AQIMax:            a.AQIMax,
			Sensitivity:       a.PSM,
			BaseScore:         a.BaseScore,
			PersonalizedScore: a.PersonalizedScore,
		},
	}
}
