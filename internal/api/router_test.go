package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/tripguard/tripguard/internal/advisory"
	"github.com/tripguard/tripguard/internal/api"
	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/livedata/static"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/provider/resilience"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testEnv struct {
	router   http.Handler
	profiles *profile.Service
	registry *resilience.Registry
}

func newTestEnv(t *testing.T, db *pinger) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	profiles := profile.NewService(profile.NewInMemoryRepository())
	live := livedata.NewService(livedata.ServiceConfig{
		Provider: static.NewDefaultProvider(),
		Logger:   logger,
	})
	svc, err := advisory.NewService(advisory.ServiceConfig{
		Profiles:   profiles,
		Conditions: live,
		Logger:     logger,
		Tracer:     tracenoop.NewTracerProvider().Tracer("test"),
		Meter:      noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	registry := resilience.NewRegistry()
	cfg := api.RouterConfig{
		Version:   "test",
		BuildTime: "2025-01-01T00:00:00Z",
		Logger:    logger,
		Advisory:  svc,
		Profiles:  profiles,
		LiveData:  live,
		Registry:  registry,
	}
	if db != nil {
		cfg.Database = db
	}

	return &testEnv{router: api.NewRouter(cfg), profiles: profiles, registry: registry}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func fieldNames(p models.Problem) []string {
	names := make([]string, 0, len(p.Errors))
	for _, fe := range p.Errors {
		names = append(names, fe.Field)
	}
	return names
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/v1/ops/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	health := decode[models.Health](t, w)
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		w := newTestEnv(t, nil).do(t, http.MethodGet, "/v1/ops/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database up", func(t *testing.T) {
		w := newTestEnv(t, &pinger{}).do(t, http.MethodGet, "/v1/ops/ready", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		w := newTestEnv(t, &pinger{err: errors.New("connection refused")}).do(t, http.MethodGet, "/v1/ops/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		health := decode[models.Health](t, w)
		assert.Equal(t, models.HealthStatusFail, health.Status)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t, &pinger{})

	feed := resilience.NewClient(resilience.DefaultClientConfig("upstream"))
	env.registry.Register("upstream", feed)
	env.registry.RecordFailure("upstream", errors.New("timeout"))

	// Warm one cache entry.
	w := env.do(t, http.MethodPost, "/v1/travel/reports", reportBody(`"profile": {"age": 30, "sex": "M"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/ops/status", "")
	assert.Equal(t, http.StatusOK, w.Code)

	status := decode[models.SystemStatus](t, w)
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "upstream", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
	assert.Equal(t, "timeout", status.Providers[0].Message)
	assert.NotNil(t, status.Providers[0].LastFailureAt)

	require.NotNil(t, status.Cache)
	assert.Equal(t, static.ProviderName, status.Cache.Provider)
	assert.Equal(t, 1, status.Cache.Entries)

	names := make([]string, 0, len(status.Subsystems))
	for _, s := range status.Subsystems {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"postgres", "livedata-cache"}, names)
}

func TestRouter_SystemStatus_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, &pinger{err: errors.New("down")})

	status := decode[models.SystemStatus](t, env.do(t, http.MethodGet, "/v1/ops/status", ""))
	assert.Equal(t, models.HealthStatusFail, status.Status)
}

func TestRouter_GetEnums(t *testing.T) {
	w := newTestEnv(t, nil).do(t, http.MethodGet, "/v1/metadata/enums", "")
	assert.Equal(t, http.StatusOK, w.Code)

	enums := decode[models.Enums](t, w)
	assert.Equal(t, []string{"road", "rail", "air"}, enums.Modes)
	assert.Equal(t, []string{"M", "F", "O"}, enums.Sexes)
	assert.Equal(t, []string{"LOW", "MODERATE", "HIGH"}, enums.Bands)
	assert.Contains(t, enums.Conditions, "asthma")
}

func TestRouter_ProfileLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/v1/profiles",
		`{"age": 65, "sex": "f", "conditions": ["Diabetes", "diabetes"], "medications": ["metformin"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.Profile](t, w)
	assert.True(t, strings.HasPrefix(created.ProfileID, profile.IDPrefix))
	assert.Equal(t, "/v1/profiles/"+created.ProfileID, w.Header().Get("Location"))
	assert.Equal(t, "F", created.Sex)
	assert.Equal(t, []string{"diabetes"}, created.Conditions)
	assert.Equal(t, []string{}, created.Allergies)

	w = env.do(t, http.MethodGet, "/v1/profiles/"+created.ProfileID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 65, decode[models.Profile](t, w).Age)

	w = env.do(t, http.MethodPut, "/v1/profiles/"+created.ProfileID, `{"age": 66, "sex": "F", "pregnant": false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Profile](t, w)
	assert.Equal(t, 66, updated.Age)
	assert.Empty(t, updated.Conditions)

	w = env.do(t, http.MethodDelete, "/v1/profiles/"+created.ProfileID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/v1/profiles/"+created.ProfileID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_UpsertProfile_CreatesWithClientID(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPut, "/v1/profiles/prf_family01", `{"age": 8, "sex": "O"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "prf_family01", decode[models.Profile](t, w).ProfileID)

	w = env.do(t, http.MethodPut, "/v1/profiles/family01", `{"age": 8, "sex": "O"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreateProfile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"malformed json", `{"age":`, nil},
		{"missing age", `{"sex": "M"}`, []string{"age"}},
		{"age out of range", `{"age": 131, "sex": "M"}`, []string{"age"}},
		{"bad sex", `{"age": 40, "sex": "X"}`, []string{"sex"}},
		{"pregnant male", `{"age": 40, "sex": "M", "pregnant": true}`, []string{"pregnant"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestEnv(t, nil).do(t, http.MethodPost, "/v1/profiles", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			p := decode[models.Problem](t, w)
			assert.Equal(t, models.ProblemTypeValidation, p.Type)
			if tt.fields != nil {
				assert.Equal(t, tt.fields, fieldNames(p))
			}
		})
	}
}

func TestRouter_DeleteProfile_NotFound(t *testing.T) {
	w := newTestEnv(t, nil).do(t, http.MethodDelete, "/v1/profiles/prf_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func reportBody(extra string) string {
	return `{"trip": {"from_district": "Pune", "to_district": "Mumbai", "travel_date": "2025-03-16", "mode": "road"}, ` + extra + `}`
}

func TestRouter_CreateReport_StoredProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	p, err := env.profiles.Create(context.Background(), &profile.Input{
		Age: 65, Sex: "F", Conditions: []string{"diabetes"},
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/v1/travel/reports", reportBody(`"profileId": "`+p.ID+`"`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[models.Report](t, w)
	assert.True(t, strings.HasPrefix(report.ReportID, advisory.ReportIDPrefix))
	assert.Equal(t, p.ID, report.ProfileID)
	assert.Equal(t, static.ProviderName, report.LiveSource)
	assert.Equal(t, "Trip: Pune → Mumbai | Date: 16 Mar 2025 | Mode: Road", report.Header)
	assert.Equal(t, "🔴 HIGH", report.Risk)
	assert.Equal(t, "HIGH", report.Band)
	assert.Equal(t, []string{
		"Dengue surge in Mumbai (42 cases last week)",
		"Heavy rainfall forecast: 64 mm",
		"Waterlogging risk on " + static.DefaultRoutes()[0].FloodProneSegments[0],
	}, report.Reasons)
	assert.Contains(t, report.Advice, travelrisk.AdviceDiabeticFoot)
	assert.Equal(t, "KEM Hospital (022-24107000)", report.Emergency.Hospital)
	assert.Equal(t, "108", report.Emergency.Ambulance)
	assert.Contains(t, report.Checklist.Before, travelrisk.ChecklistRainGear)
	assert.Contains(t, report.Checklist.OnWay, travelrisk.ChecklistAvoidFlood)
	assert.Len(t, report.Checklist.OnArrival, 2)

	a := report.Assessment
	assert.Equal(t, 2, a.DiseaseRisk)
	assert.Equal(t, 3, a.WeatherRisk)
	assert.Equal(t, 1, a.AirRisk)
	assert.Equal(t, 1, a.RouteHazard)
	assert.InDelta(t, 20.0, a.BaseScore, 1e-9)
	assert.InDelta(t, 1.44, a.Sensitivity, 1e-9)
	assert.InDelta(t, 28.8, a.PersonalizedScore, 1e-9)
}

const inlineLive = `{
  "disease": {
    "to": {"dengue_weekly_cases": 42, "typhoid_cluster": true},
    "from": {"dengue_weekly_cases": 5}
  },
  "weather": {
    "to": {"rain_mm_24h": 62.5, "heat_index": 34, "alerts": ["flood watch"]},
    "route": {"flood_prone_segments": ["Sion circle"]}
  },
  "aqi": {"to": 120, "from": 80, "route_max": 160},
  "infrastructure": {"hospitals_to": [], "pharmacies_to": [], "ambulance": "108"}
}`

func TestRouter_CreateReport_InlineProfileAndLive(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{
		"trip": {"from_district": "Pune", "to_district": "Mumbai", "travel_date": "2025-03-16", "mode": "rail"},
		"profile": {"age": 30, "sex": "M", "conditions": ["Asthma"]},
		"live": ` + inlineLive + `
	}`
	w := env.do(t, http.MethodPost, "/v1/travel/reports", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[models.Report](t, w)
	assert.Equal(t, advisory.SourceInline, report.LiveSource)
	assert.Empty(t, report.ProfileID)
	assert.Equal(t, "HIGH", report.Band)
	assert.Equal(t, 3, report.Assessment.DiseaseRisk)
	assert.InDelta(t, 1.3, report.Assessment.Sensitivity, 1e-9)
	assert.InDelta(t, 31.2, report.Assessment.PersonalizedScore, 1e-9)
	assert.Equal(t, []string{
		"Dengue surge in Mumbai (42 cases last week)",
		"Active typhoid cluster reported",
		"Heavy rainfall forecast: 62.5 mm",
	}, report.Reasons)
	assert.Equal(t, []string{
		travelrisk.AdviceDengue,
		travelrisk.AdviceTyphoid,
		travelrisk.AdviceHeavyRain,
		travelrisk.AdviceRespiratory,
		travelrisk.AdviceRail,
	}, report.Advice)
	assert.Equal(t, travelrisk.NotAvailable, report.Emergency.Hospital)
	assert.Equal(t, travelrisk.NotAvailable, report.Emergency.Pharmacy)
	assert.Equal(t, []string{
		travelrisk.ChecklistWindowsClosed,
		travelrisk.ChecklistAvoidFlood,
		travelrisk.ChecklistHotFood,
	}, report.Checklist.OnWay)
}

func TestRouter_CreateReport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{
			name:   "malformed json",
			body:   `{"trip": `,
			status: http.StatusBadRequest,
		},
		{
			name:   "no profile",
			body:   reportBody(`"live": null`),
			status: http.StatusBadRequest,
			fields: []string{"profile"},
		},
		{
			name:   "bad mode and date",
			body:   `{"trip": {"from_district": "Pune", "to_district": "Mumbai", "travel_date": "16/03/2025", "mode": "boat"}, "profile": {"age": 30, "sex": "M"}}`,
			status: http.StatusBadRequest,
			fields: []string{"trip.mode", "trip.travel_date"},
		},
		{
			name:   "missing trip fields",
			body:   `{"trip": {"mode": "air"}, "profile": {"age": 30, "sex": "M"}}`,
			status: http.StatusBadRequest,
			fields: []string{"trip.from_district", "trip.to_district", "trip.travel_date"},
		},
		{
			name:   "inline profile invalid",
			body:   reportBody(`"profile": {"age": -1, "sex": "Q"}`),
			status: http.StatusBadRequest,
			fields: []string{"profile.age", "profile.sex"},
		},
		{
			name:   "inline profile missing age",
			body:   reportBody(`"profile": {"sex": "F"}`),
			status: http.StatusBadRequest,
			fields: []string{"profile.age"},
		},
		{
			name:   "negative live values",
			body: reportBody(`"profile": {"age": 30, "sex": "M"}, "live": {
				"disease": {"to": {"dengue_weekly_cases": -4}, "from": {"dengue_weekly_cases": 0}},
				"weather": {"to": {"rain_mm_24h": 0}},
				"aqi": {"to": -1, "from": 0, "route_max": 0},
				"infrastructure": {"hospitals_to": [], "pharmacies_to": [], "ambulance": "108"}}`),
			status: http.StatusBadRequest,
			fields: []string{"live.disease.to.dengue_weekly_cases", "live.aqi.to"},
		},
		{
			name:   "empty live snapshot",
			body:   reportBody(`"profile": {"age": 30, "sex": "M"}, "live": {}`),
			status: http.StatusBadRequest,
			fields: []string{
				"live.disease.to.dengue_weekly_cases",
				"live.weather.to.rain_mm_24h",
				"live.aqi.to",
				"live.aqi.from",
				"live.aqi.route_max",
				"live.infrastructure.hospitals_to",
				"live.infrastructure.pharmacies_to",
				"live.infrastructure.ambulance",
			},
		},
		{
			name: "live snapshot missing readings",
			body: reportBody(`"profile": {"age": 30, "sex": "M"}, "live": {
				"disease": {"to": {"dengue_weekly_cases": 0}},
				"weather": {"to": {"rain_mm_24h": 0}},
				"aqi": {"to": 0, "from": 0},
				"infrastructure": {"hospitals_to": [], "pharmacies_to": []}}`),
			status: http.StatusBadRequest,
			fields: []string{"live.aqi.route_max", "live.infrastructure.ambulance"},
		},
		{
			name:   "unknown stored profile",
			body:   reportBody(`"profileId": "prf_nobody"`),
			status: http.StatusNotFound,
		},
		{
			name:   "unknown district",
			body:   `{"trip": {"from_district": "Pune", "to_district": "Atlantis", "travel_date": "2025-03-16", "mode": "road"}, "profile": {"age": 30, "sex": "M"}}`,
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestEnv(t, nil).do(t, http.MethodPost, "/v1/travel/reports", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

			if tt.fields != nil {
				assert.Equal(t, tt.fields, fieldNames(decode[models.Problem](t, w)))
			}
		})
	}
}

func TestRouter_CreateReport_RequiresJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/travel/reports", bytes.NewBufferString("trip=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_CreateReport_RateLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	body := reportBody(`"profile": {"age": 30, "sex": "M"}`)

	for i := 0; i < 30; i++ {
		w := env.do(t, http.MethodPost, "/v1/travel/reports", body)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := env.do(t, http.MethodPost, "/v1/travel/reports", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other route groups keep their own budget.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/metadata/enums", "").Code)
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "req_client_123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req_client_123", w.Header().Get("X-Request-Id"))
}

func TestRouter_SecurityHeaders(t *testing.T) {
	w := newTestEnv(t, nil).do(t, http.MethodGet, "/v1/ops/health", "")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRouter_NotFound(t *testing.T) {
	w := newTestEnv(t, nil).do(t, http.MethodGet, "/v1/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
