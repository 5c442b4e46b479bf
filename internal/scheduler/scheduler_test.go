package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	obsmetrics "github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCallBilling struct {
	callbillingdomain.Service

	calls  int
	limit  int
	result callbillingdomain.ReconcileResult
	err    error
	block  bool
}

func (f *fakeCallBilling) Reconcile(ctx context.Context, limit int) (callbillingdomain.ReconcileResult, error) {
	f.calls++
	f.limit = limit
	if f.block {
		<-ctx.Done()
		return callbillingdomain.ReconcileResult{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (string, bool, error) {
	if l.held {
		return "", false, nil
	}
	l.acquired++
	return "token", true, nil
}

func (l *fakeLocker) Release(context.Context, string, string) error {
	l.released++
	return nil
}

func newTestScheduler(t *testing.T, cfg Config, svc *fakeCallBilling) (*Scheduler, *prometheus.Registry) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sched, err := New(Params{
		Log:            zap.NewNop(),
		GenID:          node,
		Clock:          clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
		CallBillingSvc: svc,
		Config:         cfg,
		Metrics:        obsmetrics.NewSchedulerMetrics(reg, obsmetrics.Config{}),
	})
	require.NoError(t, err)
	return sched, reg
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceReconcilesCalls(t *testing.T) {
	svc := &fakeCallBilling{result: callbillingdomain.ReconcileResult{Checked: 3, Billed: 2}}
	sched, reg := newTestScheduler(t, Config{BatchSize: 25}, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Equal(t, 1, svc.calls)
	require.Equal(t, 25, svc.limit)

	count, err := testutil.GatherAndCount(reg, "fyxed_scheduler_job_runs_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRunOnceSkipsDisabledJobs(t *testing.T) {
	svc := &fakeCallBilling{}
	sched, _ := newTestScheduler(t, Config{EnabledJobs: []string{"something_else"}}, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Zero(t, svc.calls)
}

func TestRunOnceWrapsJobErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeCallBilling{err: boom}
	sched, _ := newTestScheduler(t, Config{}, svc)

	err := sched.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), JobCallBillingReconcile)
}

func TestRunOnceIgnoresDisabledCallsAPI(t *testing.T) {
	svc := &fakeCallBilling{err: callbillingdomain.ErrCallsAPIDisabled}
	sched, _ := newTestScheduler(t, Config{}, svc)

	require.NoError(t, sched.RunOnce(context.Background()))
}

func TestRunOnceTreatsTimeoutAsSoft(t *testing.T) {
	svc := &fakeCallBilling{block: true}
	sched, reg := newTestScheduler(t, Config{JobTimeout: 10 * time.Millisecond}, svc)

	require.NoError(t, sched.RunOnce(context.Background()))

	count, err := testutil.GatherAndCount(reg, "fyxed_scheduler_job_timeouts_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	svc := &fakeCallBilling{}
	sched, _ := newTestScheduler(t, Config{}, svc)
	locker := &fakeLocker{held: true}
	sched.locker = locker

	require.NoError(t, sched.RunOnce(context.Background()))
	require.Zero(t, svc.calls)

	locker.held = false
	require.NoError(t, sched.RunOnce(context.Background()))
	require.Equal(t, 1, svc.calls)
	require.Equal(t, 1, locker.acquired)
	require.Equal(t, 1, locker.released)
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	svc := &fakeCallBilling{}
	sched, _ := newTestScheduler(t, Config{RunInterval: time.Hour}, svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunForever did not return after cancel")
	}
	require.LessOrEqual(t, svc.calls, 1)
}
