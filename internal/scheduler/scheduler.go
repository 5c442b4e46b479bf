package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	obsmetrics "github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// runLocker keeps two scheduler replicas from running the same job at once.
type runLocker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
}

type Params struct {
	fx.In

	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	CallBillingSvc callbillingdomain.Service
	Config         Config                      `optional:"true"`
	Locker         *ratelimit.Locker           `optional:"true"`
	Metrics        *obsmetrics.SchedulerMetrics `optional:"true"`
}

type Scheduler struct {
	log            *zap.Logger
	cfg            Config
	genID          *snowflake.Node
	clock          clock.Clock
	callBillingSvc callbillingdomain.Service
	locker         runLocker
	metrics        *obsmetrics.SchedulerMetrics
}

type job struct {
	name string
	run  func(ctx context.Context, run *jobRun) error
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.CallBillingSvc == nil {
		return nil, ErrInvalidConfig
	}
	s := &Scheduler{
		log:            p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:            p.Config.withDefaults(),
		genID:          p.GenID,
		clock:          p.Clock,
		callBillingSvc: p.CallBillingSvc,
		metrics:        p.Metrics,
	}
	if p.Locker != nil {
		s.locker = p.Locker
	}
	return s, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobCallBillingReconcile, run: s.callBillingReconcileJob},
	}
}

// RunOnce runs every enabled job a single time. Job errors are joined; one
// failing job does not stop the others.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, j))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runJob(parent context.Context, j job) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	if s.locker != nil {
		lockName := "scheduler:" + j.name
		token, ok, err := s.locker.TryLock(ctx, lockName, s.cfg.JobTimeout)
		if err != nil {
			s.log.Warn("scheduler lock unavailable, running unlocked", zap.String("job", j.name), zap.Error(err))
		} else if !ok {
			s.metrics.IncLockSkipped(j.name)
			s.log.Debug("scheduler job held by another runner", zap.String("job", j.name))
			return nil
		} else {
			defer func() {
				err := s.locker.Release(context.Background(), lockName, token)
				switch {
				case errors.Is(err, ratelimit.ErrLockLost):
					s.log.Warn("scheduler lock expired before the job finished", zap.String("job", j.name))
				case err != nil:
					s.log.Warn("scheduler lock release failed", zap.String("job", j.name), zap.Error(err))
				}
			}()
		}
	}

	ctx, span := otel.Tracer("fyxed/scheduler").Start(ctx, "scheduler."+j.name)
	defer span.End()

	run := s.newJobRun(j.name)
	span.SetAttributes(attribute.String("scheduler.run_id", run.runID))
	s.logJobStart(ctx, run)
	s.metrics.IncJobRun(j.name)

	err := j.run(ctx, run)
	s.metrics.ObserveJobDuration(j.name, s.clock.Now().Sub(run.startedAt))
	span.SetAttributes(
		attribute.Int("scheduler.processed", run.processed),
		attribute.Int("scheduler.errors", run.failed),
	)
	s.logJobFinish(ctx, run, err)
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(j.name, err)
	span.RecordError(err)
	// a deadline is a soft timeout; the next tick picks up the remainder
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.metrics.IncJobTimeout(j.name)
		return nil
	}
	span.SetStatus(codes.Error, "job failed")
	return fmt.Errorf("%s: %w", j.name, err)
}

func (s *Scheduler) isJobEnabled(name string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), name) {
			return true
		}
	}
	return false
}

func (s *Scheduler) callBillingReconcileJob(ctx context.Context, run *jobRun) error {
	result, err := s.callBillingSvc.Reconcile(ctx, s.cfg.BatchSize)
	run.AddProcessed(result.Billed)
	run.AddErrors(result.Failed)
	s.metrics.AddBatchProcessed(JobCallBillingReconcile, "call", result.Billed)

	if errors.Is(err, callbillingdomain.ErrCallsAPIDisabled) {
		s.log.Debug("calls api not configured, skipping reconcile")
		return nil
	}
	return err
}
