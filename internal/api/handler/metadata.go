package handler

import (
	"net/http"

	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/api/response"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{
		Modes: []string{
			string(travelrisk.ModeRoad),
			string(travelrisk.ModeRail),
			string(travelrisk.ModeAir),
		},
		Sexes: []string{
			string(travelrisk.SexMale),
			string(travelrisk.SexFemale),
			string(travelrisk.SexOther),
		},
		Bands: []string{
			string(travelrisk.BandLow),
			string(travelrisk.BandModerate),
			string(travelrisk.BandHigh),
		},
		Conditions: []string{
			travelrisk.ConditionAsthma,
			travelrisk.ConditionCOPD,
			travelrisk.ConditionDiabetes,
			travelrisk.ConditionCVD,
		},
	}
	response.JSON(w, r, http.StatusOK, enums)
}
