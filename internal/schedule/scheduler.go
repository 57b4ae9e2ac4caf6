// Package schedule runs the maintenance jobs (embedding cleanup and
// the like) on standard 5-field cron expressions.
package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

type CronScheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]cron.EntryID),
	}
}

// AddJob registers a job under its name; names must be unique so one
// cleanup cannot be scheduled twice by accident.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job already scheduled: %s", name)
	}
	entryID, err := c.cron.AddFunc(spec, c.runner(job))
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	c.jobs[name] = entryID
	logutil.GetLogger(context.Background()).Info("maintenance job scheduled",
		zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop waits for an in-flight run to finish before returning.
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// runner serializes runs of one job. A tick firing while the previous
// run is still going is dropped, and a panicking job never takes the
// scheduler down with it.
func (c *CronScheduler) runner(job Job) func() {
	var busy atomic.Bool
	return func() {
		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		if !busy.CompareAndSwap(false, true) {
			logger.Warn("previous run still active, tick dropped")
			return
		}
		defer busy.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job panicked", zap.Any("panic", r))
			}
		}()
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logger.Error("job run failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
			return
		}
		logger.Info("job run complete", zap.Duration("cost", time.Since(start)))
	}
}
