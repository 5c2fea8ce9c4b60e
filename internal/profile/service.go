package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Validation constants.
const (
	MaxAge       = 130
	MaxTags      = 50
	MaxTagLength = 64
)

// Service provides profile operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get retrieves a profile by ID.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.Get(ctx, id)
}

// Traveler returns the scoring attributes of a stored profile.
func (s *Service) Traveler(ctx context.Context, id string) (travelrisk.TravelerProfile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return travelrisk.TravelerProfile{}, err
	}
	return p.Traveler, nil
}

// Create validates the input and stores a new profile with a generated ID.
func (s *Service) Create(ctx context.Context, input *Input) (*Profile, error) {
	traveler, err := ToTraveler(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Profile{
		ID:        IDPrefix + uuid.New().String()[:22],
		Traveler:  traveler,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert replaces the profile with the given ID, creating it if needed.
func (s *Service) Upsert(ctx context.Context, id string, input *Input) (*Profile, error) {
	traveler, err := ToTraveler(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	existing, err := s.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if existing == nil {
		p := &Profile{ID: id, Traveler: traveler, CreatedAt: now, UpdatedAt: now}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	existing.Traveler = traveler
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a profile.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ToTraveler validates an Input and converts it to scoring attributes.
// Condition tags are normalized to lowercase. Validation failures are
// returned as *travelrisk.ValidationError.
func ToTraveler(input *Input) (travelrisk.TravelerProfile, error) {
	var errs []travelrisk.FieldError
	add := func(field, msg string) {
		errs = append(errs, travelrisk.FieldError{Field: field, Message: msg})
	}

	if input == nil {
		return travelrisk.TravelerProfile{}, &travelrisk.ValidationError{
			Errors: []travelrisk.FieldError{{Field: "profile", Message: "is required"}},
		}
	}

	if input.Age < 0 || input.Age > MaxAge {
		add("age", "must be between 0 and 130")
	}

	sex, err := travelrisk.ParseSex(input.Sex)
	if err != nil {
		add("sex", "must be one of M, F, O")
	}

	if input.Pregnant && sex == travelrisk.SexMale {
		add("pregnant", "cannot be true when sex is M")
	}

	tagFields := []struct {
		name string
		tags []string
	}{
		{"conditions", input.Conditions},
		{"allergies", input.Allergies},
		{"vaccinations", input.Vaccinations},
		{"medications", input.Medications},
	}
	for _, f := range tagFields {
		if msg := checkTags(f.tags); msg != "" {
			add(f.name, msg)
		}
	}

	if len(errs) > 0 {
		return travelrisk.TravelerProfile{}, &travelrisk.ValidationError{Errors: errs}
	}

	return travelrisk.TravelerProfile{
		Age:          input.Age,
		Sex:          sex,
		Conditions:   travelrisk.NormalizeConditions(input.Conditions),
		Pregnant:     input.Pregnant,
		Allergies:    trimAll(input.Allergies),
		Vaccinations: trimAll(input.Vaccinations),
		Medications:  trimAll(input.Medications),
	}, nil
}

func checkTags(tags []string) string {
	if len(tags) > MaxTags {
		return "must contain at most 50 entries"
	}
	for _, t := range tags {
		if len(t) > MaxTagLength {
			return "entries must be at most 64 characters"
		}
	}
	return ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
