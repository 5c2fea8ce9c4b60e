// Package resilience wraps outbound calls to live-data feeds with circuit
// breakers, per-request timeouts and bounded retries, and tracks feed health
// in a Registry.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker guarding one feed.
type BreakerConfig struct {
	// Name identifies the breaker in logs and health reports.
	Name string

	// HalfOpenRequests is the number of probe requests let through while
	// half-open. Default: 1
	HalfOpenRequests uint32

	// ResetInterval clears counts periodically while closed. Zero keeps
	// counts until the state changes.
	ResetInterval time.Duration

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// ShouldTrip decides when consecutive failures open the breaker.
	// Defaults to ShouldTripOnFailureRatio.
	ShouldTrip func(counts gobreaker.Counts) bool

	// OnStateChange observes transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the breaker settings used for feed clients.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		HalfOpenRequests: 1,
		OpenTimeout:      30 * time.Second,
		ShouldTrip:       ShouldTripOnFailureRatio,
	}
}

// ShouldTripOnFailureRatio opens the breaker once at least 5 requests were
// seen and half or more of them failed.
func ShouldTripOnFailureRatio(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.ResetInterval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: cfg.ShouldTrip,
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = ShouldTripOnFailureRatio
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
