package scheduler

import (
	"time"

	"github.com/smallbiznis/fyxed/internal/config"
)

const JobCallBillingReconcile = "call_billing_reconcile"

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	// EnabledJobs restricts RunOnce to the named jobs. Empty enables all.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   100,
		JobTimeout:  30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.SchedulerInterval,
		BatchSize:   cfg.SchedulerBatchSize,
		EnabledJobs: cfg.SchedulerJobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
