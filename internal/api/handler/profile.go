package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/api/response"
	"github.com/tripguard/tripguard/internal/profile"
)

// maxProfileIDLength bounds client-chosen IDs on PUT.
const maxProfileIDLength = 64

// ProfileHandler handles traveler profile endpoints.
type ProfileHandler struct {
	profiles *profile.Service
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// CreateProfile handles POST /v1/profiles.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeProfileInput(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Create(r.Context(), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/profiles/"+p.ID, toProfileResponse(p))
}

// GetProfile handles GET /v1/profiles/{profileId}.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), chi.URLParam(r, "profileId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toProfileResponse(p))
}

// UpsertProfile handles PUT /v1/profiles/{profileId} - create or replace.
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "profileId")
	if !validProfileID(id) {
		response.BadRequest(w, r, "invalid profile ID", []models.FieldError{{
			Field:   "profileId",
			Message: "must start with " + profile.IDPrefix + " and be at most 64 characters",
			Code:    models.CodeInvalid,
		}})
		return
	}

	input, ok := decodeProfileInput(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Upsert(r.Context(), id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toProfileResponse(p))
}

// DeleteProfile handles DELETE /v1/profiles/{profileId}.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Delete(r.Context(), chi.URLParam(r, "profileId")); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func validProfileID(id string) bool {
	return strings.HasPrefix(id, profile.IDPrefix) && len(id) > len(profile.IDPrefix) && len(id) <= maxProfileIDLength
}

// decodeProfileInput reads the body and writes a 400 on failure.
func decodeProfileInput(w http.ResponseWriter, r *http.Request) (*profile.Input, bool) {
	var body models.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return nil, false
	}
	if body.Age == nil {
		response.BadRequest(w, r, "request validation failed", []models.FieldError{{
			Field:   "age",
			Message: "is required",
			Code:    models.CodeRequired,
		}})
		return nil, false
	}
	return toProfileInput(&body), true
}

func toProfileInput(body *models.ProfileInput) *profile.Input {
	input := &profile.Input{
		Sex:          body.Sex,
		Conditions:   body.Conditions,
		Pregnant:     body.Pregnant,
		Allergies:    body.Allergies,
		Vaccinations: body.Vaccinations,
		Medications:  body.Medications,
	}
	if body.Age != nil {
		input.Age = *body.Age
	}
	return input
}

func toProfileResponse(p *profile.Profile) models.Profile {
	t := p.Traveler
	return models.Profile{
		ProfileID:    p.ID,
		Age:          t.Age,
		Sex:          string(t.Sex),
		Conditions:   nonNil(t.Conditions),
		Pregnant:     t.Pregnant,
		Allergies:    nonNil(t.Allergies),
		Vaccinations: nonNil(t.Vaccinations),
		Medications:  nonNil(t.Medications),
		CreatedAt:    models.Timestamp(p.CreatedAt),
		UpdatedAt:    models.Timestamp(p.UpdatedAt),
	}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
