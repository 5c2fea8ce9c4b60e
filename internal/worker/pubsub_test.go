package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/worker"
)

func newDispatcher(refresher *mockRefresher) *worker.Dispatcher {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Routes: []worker.RouteTarget{
				{From: "Pune", To: "Mumbai"},
				{From: "Delhi", To: "Jaipur"},
			},
			Concurrency: 2,
			Timeout:     time.Second,
			HorizonDays: 1,
		},
		Logger:    zerolog.Nop(),
		Refresher: refresher,
		Now:       fixedNow,
	})
	return worker.NewDispatcher(job, zerolog.Nop())
}

func TestDispatcher_LiveDataRefresh(t *testing.T) {
	refresher := &mockRefresher{}
	d := newDispatcher(refresher)

	require.NoError(t, d.Handle(context.Background(), []byte(`{"job_type":"livedata_refresh"}`)))
	assert.Len(t, refresher.seen(), 4)
}

func TestDispatcher_LiveDataRefresh_Overrides(t *testing.T) {
	refresher := &mockRefresher{}
	d := newDispatcher(refresher)

	err := d.Handle(context.Background(), []byte(
		`{"job_type":"livedata_refresh","routes":[{"from":"Mumbai","to":"Thane"}],"horizon_days":0}`))
	require.NoError(t, err)

	seen := refresher.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, "Thane", seen[0].ToDistrict)
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), seen[0].TravelDate)
}

func TestDispatcher_LiveDataRefresh_MostlyFailing(t *testing.T) {
	refresher := &mockRefresher{fail: map[string]error{
		"Mumbai": livedata.ErrProviderUnavailable,
		"Jaipur": livedata.ErrProviderUnavailable,
	}}
	d := newDispatcher(refresher)

	err := d.Handle(context.Background(), []byte(`{"job_type":"livedata_refresh"}`))
	require.Error(t, err)
	assert.False(t, worker.ShouldAck(err))
}

func TestDispatcher_HealthCheck(t *testing.T) {
	refresher := &mockRefresher{}
	d := newDispatcher(refresher)

	require.NoError(t, d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`)))

	seen := refresher.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, "Pune", seen[0].FromDistrict)
}

func TestDispatcher_HealthCheck_Failure(t *testing.T) {
	d := newDispatcher(&mockRefresher{fail: map[string]error{"Mumbai": errors.New("feed down")}})

	err := d.Handle(context.Background(), []byte(`{"job_type":"health_check"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

func TestDispatcher_BadMessages(t *testing.T) {
	d := newDispatcher(&mockRefresher{})

	err := d.Handle(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, worker.ErrMalformedMessage)
	assert.False(t, worker.ShouldAck(err))

	err = d.Handle(context.Background(), []byte(`{"job_type":"provider_refresh"}`))
	assert.ErrorIs(t, err, worker.ErrUnknownJobType)
	assert.True(t, worker.ShouldAck(err))
}

func TestShouldAck(t *testing.T) {
	assert.True(t, worker.ShouldAck(nil))
	assert.False(t, worker.ShouldAck(errors.New("transient")))
}
