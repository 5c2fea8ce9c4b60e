package advisory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tripguard/tripguard/internal/advisory"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/livedata/static"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

type fixture struct {
	service  *advisory.Service
	profiles *profile.Service
	reader   *sdkmetric.ManualReader
	spans    *tracetest.SpanRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	profiles := profile.NewService(profile.NewInMemoryRepository())
	conditions := livedata.NewService(livedata.ServiceConfig{
		Provider: static.NewDefaultProvider(),
		Logger:   zerolog.Nop(),
	})

	service, err := advisory.NewService(advisory.ServiceConfig{
		Profiles:   profiles,
		Conditions: conditions,
		Logger:     zerolog.Nop(),
		Tracer:     tracerProvider.Tracer("test"),
		Meter:      meterProvider.Meter("test"),
	})
	require.NoError(t, err)

	return &fixture{service: service, profiles: profiles, reader: reader, spans: spans}
}

func trip(from, to string) travelrisk.TripRequest {
	return travelrisk.TripRequest{
		FromDistrict: from,
		ToDistrict:   to,
		TravelDate:   time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC),
		Mode:         travelrisk.ModeRail,
	}
}

func TestGenerateReport_StoredProfileAndFetchedConditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored, err := f.profiles.Create(ctx, &profile.Input{Age: 65, Sex: "F", Conditions: []string{"Diabetes"}})
	require.NoError(t, err)

	result, err := f.service.GenerateReport(ctx, advisory.Request{
		Trip:      trip("Pune", "Mumbai"),
		ProfileID: stored.ID,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ID, advisory.ReportIDPrefix))
	assert.Equal(t, stored.ID, result.ProfileID)
	assert.Equal(t, static.ProviderName, result.LiveSource)
	assert.WithinDuration(t, time.Now(), result.GeneratedAt, time.Minute)

	// Mumbai: dengue 42 (DR 2), rain 64 + heat 33 (WR 3), route AQI 102 (AR 1),
	// flood-prone route (RH 1). Age and diabetes in heavy rain give 1.44.
	a := result.Report.Assessment
	assert.Equal(t, 2, a.DR)
	assert.Equal(t, 3, a.WR)
	assert.Equal(t, 1, a.AR)
	assert.Equal(t, 1, a.RH)
	assert.InDelta(t, 1.44, a.PSM, 1e-9)
	assert.InDelta(t, 20.0*1.44, a.PersonalizedScore, 1e-9)
	assert.Equal(t, travelrisk.BandHigh, result.Report.Band)
	assert.Contains(t, result.Report.Advice, travelrisk.AdviceDiabeticFoot)
	assert.Contains(t, result.Report.Advice, travelrisk.AdviceRail)
}

func TestGenerateReport_InlineInputsWin(t *testing.T) {
	f := newFixture(t)

	live := travelrisk.LiveConditions{}
	live.AQI = travelrisk.AirQuality{To: 40, From: 40, RouteMax: 40}
	live.Infrastructure.Ambulance = "108"

	result, err := f.service.GenerateReport(context.Background(), advisory.Request{
		Trip:      trip("Nowhere", "Elsewhere"),
		ProfileID: "prf_missing",
		Profile:   &travelrisk.TravelerProfile{Age: 30, Sex: travelrisk.SexMale, Conditions: []string{"ASTHMA"}},
		Live:      &live,
	})
	require.NoError(t, err)

	assert.Equal(t, advisory.SourceInline, result.LiveSource)
	assert.Empty(t, result.ProfileID)
	assert.Equal(t, travelrisk.BandLow, result.Report.Band)
	assert.Equal(t, travelrisk.NotAvailable, result.Report.Emergency.Hospital)
}

func TestGenerateReport_Errors(t *testing.T) {
	f := newFixture(t)
	inline := &travelrisk.TravelerProfile{Age: 30, Sex: travelrisk.SexOther}

	tests := []struct {
		name  string
		req   advisory.Request
		check func(t *testing.T, err error)
	}{
		{
			name: "no profile",
			req:  advisory.Request{Trip: trip("Pune", "Mumbai")},
			check: func(t *testing.T, err error) {
				var verr *travelrisk.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "profile", verr.Errors[0].Field)
			},
		},
		{
			name: "unknown profile",
			req:  advisory.Request{Trip: trip("Pune", "Mumbai"), ProfileID: "prf_missing"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, profile.ErrProfileNotFound)
			},
		},
		{
			name: "invalid trip",
			req:  advisory.Request{Trip: travelrisk.TripRequest{Mode: "boat"}, Profile: inline},
			check: func(t *testing.T, err error) {
				var verr *travelrisk.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Len(t, verr.Errors, 4)
			},
		},
		{
			name: "unknown district",
			req:  advisory.Request{Trip: trip("Pune", "Atlantis"), Profile: inline},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, livedata.ErrNoDataForDistrict)
			},
		},
		{
			name: "invalid inline conditions",
			req: advisory.Request{
				Trip:    trip("Pune", "Mumbai"),
				Profile: inline,
				Live:    &travelrisk.LiveConditions{AQI: travelrisk.AirQuality{To: -5}},
			},
			check: func(t *testing.T, err error) {
				var verr *travelrisk.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "live.aqi.to", verr.Errors[0].Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.service.GenerateReport(context.Background(), tt.req)
			assert.Nil(t, result)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestGenerateReport_NoConditionsSource(t *testing.T) {
	service, err := advisory.NewService(advisory.ServiceConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = service.GenerateReport(context.Background(), advisory.Request{
		Trip:    trip("Pune", "Mumbai"),
		Profile: &travelrisk.TravelerProfile{Age: 30, Sex: travelrisk.SexOther},
	})
	assert.ErrorIs(t, err, livedata.ErrProviderUnavailable)

	_, err = service.GenerateReport(context.Background(), advisory.Request{
		Trip:      trip("Pune", "Mumbai"),
		ProfileID: "prf_1",
	})
	assert.ErrorIs(t, err, advisory.ErrNoProfileStore)
}

func TestGenerateReport_RecordsMetricsAndSpan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inline := &travelrisk.TravelerProfile{Age: 30, Sex: travelrisk.SexOther}

	_, err := f.service.GenerateReport(ctx, advisory.Request{Trip: trip("Pune", "Bengaluru Urban"), Profile: inline})
	require.NoError(t, err)
	_, err = f.service.GenerateReport(ctx, advisory.Request{Trip: trip("Pune", "Atlantis"), Profile: inline})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(ctx, &rm))

	reports := findSum(t, rm, "travelrisk.reports.total")
	require.Len(t, reports.DataPoints, 1)
	assert.Equal(t, int64(1), reports.DataPoints[0].Value)
	band, ok := reports.DataPoints[0].Attributes.Value(attribute.Key("band"))
	require.True(t, ok)
	assert.Equal(t, string(travelrisk.BandLow), band.AsString())

	failed := findSum(t, rm, "travelrisk.reports.failed")
	require.Len(t, failed.DataPoints, 1)
	reason, _ := failed.DataPoints[0].Attributes.Value(attribute.Key("reason"))
	assert.Equal(t, "no_data", reason.AsString())

	ended := f.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "advisory.GenerateReport", ended[0].Name())
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok, "metric %s is not an int64 sum", name)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return metricdata.Sum[int64]{}
}
