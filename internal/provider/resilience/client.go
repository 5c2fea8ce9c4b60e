package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Client errors.
var (
	// ErrCircuitOpen is returned without calling the feed while its
	// breaker is open or saturated in half-open state.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig configures a feed client.
type ClientConfig struct {
	// Name identifies the feed. It names the breaker and the registry entry.
	Name string

	// Timeout bounds each individual HTTP attempt. Default: 8 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt. Default: 2
	MaxRetries uint64

	// InitialInterval is the first retry delay. Default: 200ms
	InitialInterval time.Duration

	// MaxInterval caps the retry delay. Default: 2 seconds
	MaxInterval time.Duration

	// Breaker overrides DefaultBreakerConfig.
	Breaker *BreakerConfig

	// Registry, when set, receives the client and its call outcomes.
	Registry *Registry
}

// DefaultClientConfig returns the settings used for live-data feeds.
func DefaultClientConfig(name string) ClientConfig {
	breaker := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         8 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker:         &breaker,
	}
}

// Client is an HTTP client guarded by a circuit breaker that retries
// transport errors and 5xx responses with exponential backoff.
type Client struct {
	name     string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	registry *Registry
	cfg      ClientConfig
}

// NewClient creates a feed client and registers it when cfg.Registry is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	breakerCfg := DefaultBreakerConfig(cfg.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	c := &Client{
		name:     cfg.Name,
		http:     &http.Client{Timeout: cfg.Timeout},
		breaker:  newBreaker[*http.Response](breakerCfg), //nolint:bodyclose // type param, not response
		registry: cfg.Registry,
		cfg:      cfg,
	}
	if c.registry != nil {
		c.registry.Register(c.name, c)
	}
	return c
}

// Name returns the feed name.
func (c *Client) Name() string {
	return c.name
}

// Do sends req through the breaker, retrying transient failures. A 5xx
// response that survives all retries is returned with a nil error so the
// caller can inspect it; the caller closes the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var last *http.Response
	attempt := func() error {
		if last != nil {
			last.Body.Close()
			last = nil
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.http.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		last = resp
		return err
	}

	err := backoff.Retry(attempt, policy)
	c.record(err)

	if err != nil {
		var serverErr *ServerError
		if last != nil && errors.As(err, &serverErr) {
			return last, nil
		}
		if last != nil {
			last.Body.Close()
		}
		return nil, err
	}
	return last, nil
}

func (c *Client) record(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(c.name, err)
		return
	}
	c.registry.RecordSuccess(c.name)
}

// ServerError reports a 5xx response from a feed.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker counters.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}
