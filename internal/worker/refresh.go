package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// Refresher forces a fetch of live conditions into the cache, as
// *livedata.Service does.
type Refresher interface {
	Refresh(ctx context.Context, q livedata.Query) error
}

// RefreshJob warms the live conditions cache for configured routes.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	refresher Refresher
	now       func() time.Time

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	SuccessfulTasks int64
	FailedTasks     int64
	SkippedTasks    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Refresher Refresher

	// Now defaults to time.Now. It sets the first travel date refreshed.
	Now func() time.Time
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		refresher: cfg.Refresher,
		now:       now,
		metrics:   &RefreshMetrics{},
	}
}

// Config returns the effective configuration.
func (j *RefreshJob) Config() RefreshConfig {
	return j.config
}

// RefreshResult contains the result of one run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalTasks int
	Successful int
	Failed     int

	// Skipped counts routes the feed has no data for.
	Skipped int

	Errors []RefreshError
}

// RefreshError describes one failed fetch.
type RefreshError struct {
	From  string
	To    string
	Date  string
	Error string
}

type taskResult struct {
	query livedata.Query
	err   error
}

// Run refreshes every route for each day of the horizon using a bounded
// pool of workers. Cancelling ctx stops workers from taking new tasks.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	start := time.Now()
	queries := j.config.Queries(j.now())
	result := &RefreshResult{
		StartTime:  start,
		TotalTasks: len(queries),
	}

	j.logger.Info().
		Int("total_tasks", result.TotalTasks).
		Int("concurrency", j.config.Concurrency).
		Int("horizon_days", j.config.HorizonDays).
		Msg("starting livedata refresh job")

	tasks := make(chan livedata.Query, len(queries))
	results := make(chan taskResult, len(queries))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, tasks, results)
		}()
	}

	for _, q := range queries {
		tasks <- q
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	for tr := range results {
		switch {
		case tr.err == nil:
			result.Successful++
		case errors.Is(tr.err, livedata.ErrNoDataForDistrict):
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				From:  tr.query.FromDistrict,
				To:    tr.query.ToDistrict,
				Date:  tr.query.TravelDate.Format(travelrisk.DateLayout),
				Error: tr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("livedata refresh job completed")

	return result
}

func (j *RefreshJob) refreshWorker(ctx context.Context, tasks <-chan livedata.Query, results chan<- taskResult) {
	for q := range tasks {
		select {
		case <-ctx.Done():
			return
		default:
			results <- taskResult{query: q, err: j.refresh(ctx, q)}
		}
	}
}

func (j *RefreshJob) refresh(ctx context.Context, q livedata.Query) error {
	if j.refresher == nil {
		return livedata.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	err := j.refresher.Refresh(ctx, q)
	if err != nil && !errors.Is(err, livedata.ErrNoDataForDistrict) {
		j.logger.Warn().
			Err(err).
			Str("from", q.FromDistrict).
			Str("to", q.ToDistrict).
			Time("date", q.TravelDate).
			Msg("route refresh failed")
	}
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulTasks += int64(result.Successful)
	j.metrics.FailedTasks += int64(result.Failed)
	j.metrics.SkippedTasks += int64(result.Skipped)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulTasks: j.metrics.SuccessfulTasks,
		FailedTasks:     j.metrics.FailedTasks,
		SkippedTasks:    j.metrics.SkippedTasks,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for JSON output.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_tasks":  m.SuccessfulTasks,
		"failed_tasks":      m.FailedTasks,
		"skipped_tasks":     m.SkippedTasks,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
