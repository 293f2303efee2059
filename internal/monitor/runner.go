package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/models"

	"github.com/robfig/cron/v3"
)

const failureSleepDuration = 30 * time.Minute

type Runner struct {
	processor        *Processor
	schedule         string
	imapFailureCount atomic.Int32
	sleep            func(ctx context.Context, d time.Duration)
}

func NewRunner(processor *Processor, schedule string) *Runner {
	return &Runner{processor: processor, schedule: schedule, sleep: sleepCtx}
}

// Schedule returns the cron spec for the monitor: the explicit schedule, or every refreshTime.
func Schedule(cfg models.EmailConfig) string {
	if cfg.Schedule != "" {
		return cfg.Schedule
	}
	return "@every " + cfg.RefreshTime.String()
}

// Run executes a cycle right away and then on the schedule until ctx is cancelled.
// A cycle still running when the next one is due causes that tick to be skipped.
func (r *Runner) Run(ctx context.Context) error {
	cronLog := logging.NewCronLogger()
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", r.schedule, err)
	}

	logging.Log.Infof("Monitoring inbox, schedule %s", r.schedule)
	r.RunOnce(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	logging.Log.Info("Monitor stopped")
	return nil
}

// RunOnce executes one cycle and logs its outcome
func (r *Runner) RunOnce(ctx context.Context) {
	n, err := r.processor.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrIMAPConnect):
		r.handleIMAPFailure(ctx, err)
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		logging.Log.Errorf("Cycle error: %v", err)
	}

	// Reset failure count once the server was reached
	r.imapFailureCount.Store(0)
	if n > 0 {
		logging.Log.Infof("Processed %d new emails", n)
	}
}

// handleIMAPFailure increments the failure count and implements an exponential backoff strategy
func (r *Runner) handleIMAPFailure(ctx context.Context, err error) {
	failures := r.imapFailureCount.Add(1)
	logging.Log.Errorf("IMAP connection error: %v", err)

	if wait := backoff(failures); wait > 0 {
		logging.Log.Warnf("IMAP failed %d times, waiting %s before next attempt", failures, wait)
		r.sleep(ctx, wait)
	}
}

func backoff(failures int32) time.Duration {
	if failures < 5 {
		return 0
	}

	base := 5 * time.Minute
	maxSteps := int32(10)

	n := failures - 5
	if n > maxSteps {
		n = maxSteps
	}

	wait := base * time.Duration(1<<n)
	if wait > failureSleepDuration {
		wait = failureSleepDuration
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
