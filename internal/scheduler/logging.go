package scheduler

import (
	"context"
	"time"

	obslogger "github.com/smallbiznis/fyxed/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/fyxed/internal/observability/metrics"
	"go.uber.org/zap"
)

// jobRun accumulates the counters of one job execution.
type jobRun struct {
	job       string
	runID     string
	batchSize int
	startedAt time.Time
	processed int
	failed    int
}

func (s *Scheduler) newJobRun(job string) *jobRun {
	return &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		batchSize: s.cfg.BatchSize,
		startedAt: s.clock.Now(),
	}
}

func (r *jobRun) AddProcessed(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.processed += count
}

func (r *jobRun) AddErrors(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.failed += count
}

func (r *jobRun) fields() []zap.Field {
	return []zap.Field{
		zap.String("job", r.job),
		zap.String("run_id", r.runID),
	}
}

func (s *Scheduler) jobLogger(ctx context.Context, run *jobRun) *zap.Logger {
	return obslogger.WithContext(ctx, s.log).With(run.fields()...)
}

func (s *Scheduler) logJobStart(ctx context.Context, run *jobRun) {
	s.jobLogger(ctx, run).Info("scheduler job started", zap.Int("batch_size", run.batchSize))
}

// logJobFinish reports the outcome at warn level when the job or any item in
// its batch failed.
func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun, err error) {
	log := s.jobLogger(ctx, run).With(
		zap.Duration("duration", s.clock.Now().Sub(run.startedAt)),
		zap.Int("processed", run.processed),
		zap.Int("failed", run.failed),
	)
	switch {
	case err != nil:
		log.Warn("scheduler job finished with error",
			zap.String("reason", obsmetrics.ClassifySchedulerJobReason(err)),
			zap.Error(err),
		)
	case run.failed > 0:
		log.Warn("scheduler job finished with failures")
	default:
		log.Info("scheduler job finished")
	}
}
