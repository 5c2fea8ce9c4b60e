// Package static serves live conditions from fixed district snapshots. It
// backs local development and tests, and is the fallback when no upstream
// feed is configured.
package static

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// ProviderName identifies this provider.
const ProviderName = "static"

// District is the snapshot of one district.
type District struct {
	Name              string
	DengueWeeklyCases int
	TyphoidCluster    bool
	FluTrend          string
	RainMm24h         float64
	HeatIndex         float64
	Alerts            []string
	AQI               float64
	Hospitals         []travelrisk.Hospital
	Pharmacies        []travelrisk.Pharmacy
	Ambulance         string
}

// Route holds hazards between two districts, in either direction.
type Route struct {
	From               string
	To                 string
	FloodProneSegments []string
	// AQIMax is the worst reading along the route. When zero the higher of
	// the two district readings is used.
	AQIMax float64
}

// Provider serves conditions from district and route snapshots. Snapshots
// ignore the travel date.
type Provider struct {
	mu        sync.RWMutex
	districts map[string]District
	routes    map[string]Route
}

// NewProvider creates a provider with the given snapshots.
func NewProvider(districts []District, routes []Route) *Provider {
	p := &Provider{
		districts: make(map[string]District, len(districts)),
		routes:    make(map[string]Route, len(routes)),
	}
	for _, d := range districts {
		p.PutDistrict(d)
	}
	for _, r := range routes {
		p.PutRoute(r)
	}
	return p
}

// NewDefaultProvider creates a provider preloaded with DefaultDistricts and
// DefaultRoutes.
func NewDefaultProvider() *Provider {
	return NewProvider(DefaultDistricts(), DefaultRoutes())
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

// PutDistrict adds or replaces a district snapshot.
func (p *Provider) PutDistrict(d District) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.districts[normalize(d.Name)] = d
}

// PutRoute adds or replaces a route snapshot.
func (p *Provider) PutRoute(r Route) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[routeKey(r.From, r.To)] = r
}

// Districts returns the known district names.
func (p *Provider) Districts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.districts))
	for _, d := range p.districts {
		names = append(names, d.Name)
	}
	return names
}

// GetConditions assembles conditions from the origin and destination
// snapshots. Destination signals drive disease, weather and
// infrastructure; the origin contributes its dengue count and AQI.
func (p *Provider) GetConditions(_ context.Context, q livedata.Query) (*travelrisk.LiveConditions, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	from, ok := p.districts[normalize(q.FromDistrict)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", livedata.ErrNoDataForDistrict, q.FromDistrict)
	}
	to, ok := p.districts[normalize(q.ToDistrict)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", livedata.ErrNoDataForDistrict, q.ToDistrict)
	}

	c := &travelrisk.LiveConditions{}
	c.Disease.To = travelrisk.DestinationDisease{
		DengueWeeklyCases: to.DengueWeeklyCases,
		TyphoidCluster:    to.TyphoidCluster,
		FluTrend:          to.FluTrend,
	}
	c.Disease.From.DengueWeeklyCases = from.DengueWeeklyCases
	c.Weather.To = travelrisk.DestinationWeather{
		RainMm24h: to.RainMm24h,
		HeatIndex: to.HeatIndex,
		Alerts:    append([]string(nil), to.Alerts...),
	}
	c.AQI = travelrisk.AirQuality{
		To:       to.AQI,
		From:     from.AQI,
		RouteMax: max(to.AQI, from.AQI),
	}
	if r, ok := p.routes[routeKey(q.FromDistrict, q.ToDistrict)]; ok {
		c.Weather.Route.FloodProneSegments = append([]string(nil), r.FloodProneSegments...)
		if r.AQIMax > 0 {
			c.AQI.RouteMax = r.AQIMax
		}
	}
	c.Infrastructure = travelrisk.Infrastructure{
		HospitalsTo:  append([]travelrisk.Hospital(nil), to.Hospitals...),
		PharmaciesTo: append([]travelrisk.Pharmacy(nil), to.Pharmacies...),
		Ambulance:    to.Ambulance,
	}
	return c, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func routeKey(a, b string) string {
	a, b = normalize(a), normalize(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
