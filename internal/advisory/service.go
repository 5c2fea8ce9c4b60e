package advisory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// ErrNoProfileStore is returned for a ProfileID request when the service
// has no profile store.
var ErrNoProfileStore = errors.New("no profile store configured")

const instrumentationName = "github.com/tripguard/tripguard/internal/advisory"

// ProfileSource resolves stored traveler profiles.
type ProfileSource interface {
	Traveler(ctx context.Context, id string) (travelrisk.TravelerProfile, error)
}

// ConditionsSource resolves live conditions for a trip.
type ConditionsSource interface {
	GetConditions(ctx context.Context, q livedata.Query) (*travelrisk.LiveConditions, error)
	ProviderName() string
}

// ServiceConfig holds configuration for the advisory service.
type ServiceConfig struct {
	Profiles   ProfileSource
	Conditions ConditionsSource
	Logger     zerolog.Logger

	// Tracer and Meter default to the global OpenTelemetry providers.
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Service generates travel reports.
type Service struct {
	profiles   ProfileSource
	conditions ConditionsSource
	logger     zerolog.Logger
	tracer     trace.Tracer

	reportsTotal metric.Int64Counter
	scores       metric.Float64Histogram
	failures     metric.Int64Counter

	now func() time.Time
}

// NewService creates a new advisory service.
func NewService(cfg ServiceConfig) (*Service, error) {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	reportsTotal, err := meter.Int64Counter(
		"travelrisk.reports.total",
		metric.WithDescription("Travel reports generated, by band"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, err
	}

	scores, err := meter.Float64Histogram(
		"travelrisk.score",
		metric.WithDescription("Personalized risk score of generated reports"),
		metric.WithExplicitBucketBoundaries(5, 10, 15, 20, 27, 35, 48),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"travelrisk.reports.failed",
		metric.WithDescription("Report requests that did not produce a report, by reason"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		profiles:     cfg.Profiles,
		conditions:   cfg.Conditions,
		logger:       cfg.Logger,
		tracer:       tracer,
		reportsTotal: reportsTotal,
		scores:       scores,
		failures:     failures,
		now:          time.Now,
	}, nil
}

// GenerateReport resolves the profile and live conditions for a trip and
// scores it. Validation failures are returned as *travelrisk.ValidationError.
func (s *Service) GenerateReport(ctx context.Context, req Request) (result *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "advisory.GenerateReport",
		trace.WithAttributes(
			attribute.String("trip.from", req.Trip.FromDistrict),
			attribute.String("trip.to", req.Trip.ToDistrict),
			attribute.String("trip.mode", string(req.Trip.Mode)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		}
		span.End()
	}()

	traveler, profileID, err := s.resolveProfile(ctx, req)
	if err != nil {
		return nil, err
	}

	// Reject a malformed trip or profile before calling out for conditions.
	if err := travelrisk.Validate(req.Trip, traveler, travelrisk.LiveConditions{}); err != nil {
		return nil, err
	}

	live, source, err := s.resolveLive(ctx, req)
	if err != nil {
		return nil, err
	}

	report, err := travelrisk.Score(req.Trip, traveler, *live)
	if err != nil {
		return nil, err
	}

	a := report.Assessment
	span.SetAttributes(
		attribute.String("report.band", string(report.Band)),
		attribute.Float64("report.score", a.PersonalizedScore),
		attribute.String("live.source", source),
	)
	bandAttr := metric.WithAttributes(attribute.String("band", string(report.Band)))
	s.reportsTotal.Add(ctx, 1, bandAttr)
	s.scores.Record(ctx, a.PersonalizedScore, bandAttr)

	result = &Result{
		ID:          ReportIDPrefix + uuid.New().String(),
		GeneratedAt: s.now().UTC(),
		ProfileID:   profileID,
		LiveSource:  source,
		Report:      report,
	}

	s.logger.Info().
		Str("report_id", result.ID).
		Str("from", req.Trip.FromDistrict).
		Str("to", req.Trip.ToDistrict).
		Str("band", string(report.Band)).
		Float64("score", a.PersonalizedScore).
		Float64("psm", a.PSM).
		Str("live_source", source).
		Msg("travel report generated")

	return result, nil
}

func (s *Service) resolveProfile(ctx context.Context, req Request) (travelrisk.TravelerProfile, string, error) {
	if req.Profile != nil {
		p := *req.Profile
		p.Conditions = travelrisk.NormalizeConditions(p.Conditions)
		return p, "", nil
	}
	if req.ProfileID == "" {
		return travelrisk.TravelerProfile{}, "", &travelrisk.ValidationError{
			Errors: []travelrisk.FieldError{{Field: "profile", Message: "profile or profileId is required"}},
		}
	}
	if s.profiles == nil {
		return travelrisk.TravelerProfile{}, "", ErrNoProfileStore
	}

	p, err := s.profiles.Traveler(ctx, req.ProfileID)
	if err != nil {
		return travelrisk.TravelerProfile{}, "", err
	}
	return p, req.ProfileID, nil
}

func (s *Service) resolveLive(ctx context.Context, req Request) (*travelrisk.LiveConditions, string, error) {
	if req.Live != nil {
		return req.Live, SourceInline, nil
	}
	if s.conditions == nil {
		return nil, "", livedata.ErrProviderUnavailable
	}

	live, err := s.conditions.GetConditions(ctx, livedata.QueryForTrip(req.Trip))
	if err != nil {
		return nil, "", err
	}
	return live, s.conditions.ProviderName(), nil
}

func failureReason(err error) string {
	var verr *travelrisk.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, profile.ErrProfileNotFound):
		return "profile_not_found"
	case errors.Is(err, livedata.ErrNoDataForDistrict):
		return "no_data"
	case errors.Is(err, livedata.ErrProviderUnavailable):
		return "provider_unavailable"
	default:
		return "other"
	}
}
