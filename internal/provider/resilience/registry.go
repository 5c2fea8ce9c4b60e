package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// FeedHealth is a point-in-time view of one feed client.
type FeedHealth struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status maps the breaker state: closed is healthy, half-open degraded and
// open unhealthy.
func (h FeedHealth) Status() string {
	switch h.State {
	case gobreaker.StateClosed:
		return StatusHealthy
	case gobreaker.StateHalfOpen:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// Registry tracks feed clients and their recent outcomes.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*feedEntry
}

type feedEntry struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*feedEntry)}
}

// Register adds or replaces a feed client.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[name] = &feedEntry{client: client}
}

// Unregister removes a feed.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.feeds, name)
}

// RecordSuccess stamps a successful call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := time.Now()
		f.lastSuccessAt = &now
	}
}

// RecordFailure stamps a failed call and keeps its message.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[name]; ok {
		now := time.Now()
		f.lastFailureAt = &now
		if err != nil {
			f.lastError = err.Error()
		}
	}
}

// Health returns the health of one feed and false when it is unknown.
func (r *Registry) Health(name string) (FeedHealth, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.feeds[name]
	if !ok {
		return FeedHealth{}, false
	}
	return f.snapshot(name), true
}

// All returns the health of every feed, sorted by name.
func (r *Registry) All() []FeedHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FeedHealth, 0, len(r.feeds))
	for name, f := range r.feeds {
		out = append(out, f.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered feeds.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.feeds)
}

func (f *feedEntry) snapshot(name string) FeedHealth {
	return FeedHealth{
		Name:          name,
		State:         f.client.State(),
		Counts:        f.client.Counts(),
		LastSuccessAt: f.lastSuccessAt,
		LastFailureAt: f.lastFailureAt,
		LastError:     f.lastError,
	}
}
