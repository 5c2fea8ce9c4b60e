// Package worker keeps the live conditions cache warm for popular routes.
package worker

import (
	"sort"
	"time"

	"github.com/tripguard/tripguard/internal/livedata"
)

// RouteTarget is a district pair whose conditions are refreshed ahead of
// demand.
type RouteTarget struct {
	From string `json:"from"`
	To   string `json:"to"`

	// Priority orders targets; lower values are refreshed first.
	Priority int `json:"priority,omitempty"`
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Routes to refresh. If empty, DefaultRouteTargets is used.
	Routes []RouteTarget

	// Concurrency is the number of concurrent fetches.
	// Default: 3
	Concurrency int

	// Timeout bounds each fetch.
	// Default: 30 seconds
	Timeout time.Duration

	// HorizonDays is how many days past today are refreshed. Zero
	// refreshes today only.
	// Default: 2
	HorizonDays int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Routes:      DefaultRouteTargets(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		HorizonDays: 2,
	}
}

// DefaultRouteTargets returns busy intercity corridors, both directions.
func DefaultRouteTargets() []RouteTarget {
	pairs := []struct {
		a, b     string
		priority int
	}{
		{"Mumbai", "Pune", 1},
		{"Mumbai", "Thane", 1},
		{"Delhi", "Jaipur", 1},
		{"Bengaluru Urban", "Chennai", 2},
		{"Mumbai", "Delhi", 2},
		{"Chennai", "Mumbai", 3},
	}

	targets := make([]RouteTarget, 0, len(pairs)*2)
	for _, p := range pairs {
		targets = append(targets,
			RouteTarget{From: p.a, To: p.b, Priority: p.priority},
			RouteTarget{From: p.b, To: p.a, Priority: p.priority},
		)
	}
	return targets
}

// withDefaults fills unset fields.
func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Routes) == 0 {
		c.Routes = def.Routes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.HorizonDays < 0 {
		c.HorizonDays = 0
	}
	return c
}

// Queries expands routes over the horizon starting at today's date, in
// priority order. Routes of equal priority keep their configured order.
func (c RefreshConfig) Queries(today time.Time) []livedata.Query {
	routes := sortedByPriority(c.Routes)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	queries := make([]livedata.Query, 0, c.TotalTasks())
	for _, r := range routes {
		for d := 0; d <= c.HorizonDays; d++ {
			queries = append(queries, livedata.Query{
				FromDistrict: r.From,
				ToDistrict:   r.To,
				TravelDate:   day.AddDate(0, 0, d),
			})
		}
	}
	return queries
}

// TotalTasks returns the number of fetches one run performs.
func (c RefreshConfig) TotalTasks() int {
	return len(c.Routes) * (max(c.HorizonDays, 0) + 1)
}

func sortedByPriority(routes []RouteTarget) []RouteTarget {
	out := append([]RouteTarget(nil), routes...)
	sort.SliceStable(out, func(i, k int) bool { return out[i].Priority < out[k].Priority })
	return out
}
