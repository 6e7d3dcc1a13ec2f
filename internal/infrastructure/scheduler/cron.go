package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsRadar/internal/ports"
)

// CronScheduler triggers jobs on a five-field cron expression. A trigger that
// fires while the previous run is still going is skipped.
type CronScheduler struct {
	spec     string
	location *time.Location
	runNow   bool

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for spec evaluated in loc. When runNow is
// set, the job also runs once right after Start.
func NewCronScheduler(spec string, loc *time.Location, runNow bool) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, location: loc, runNow: runNow}
}

// Start registers the job and begins ticking until Stop or ctx is done.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	runner := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(c.location),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	cronJob := cron.FuncJob(func() { job(time.Now().In(c.location)) })
	if _, err := runner.AddJob(c.spec, cronJob); err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}

	c.cron = runner
	runner.Start()

	if c.runNow {
		// Run through the chain so SkipIfStillRunning sees it.
		go runner.Entries()[0].WrappedJob.Run()
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or ctx to end.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	done := runner.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
