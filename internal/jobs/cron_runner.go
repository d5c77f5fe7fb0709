package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron"
)

// CronRunner drives the publish queue on the configured interval. Changing
// the interval replaces the underlying cron so the new schedule takes effect
// without a restart.
type CronRunner struct {
	mu       sync.Mutex
	c        *cron.Cron
	job      *PublishJob
	interval int
}

func NewCronRunner(job *PublishJob, intervalMinutes int) *CronRunner {
	return &CronRunner{
		job:      job,
		interval: intervalMinutes,
	}
}

func (r *CronRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start()
}

func (r *CronRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		r.c.Stop()
		r.c = nil
	}
}

// Reschedule swaps the drive interval. A no-op when the interval is
// unchanged.
func (r *CronRunner) Reschedule(intervalMinutes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if intervalMinutes == r.interval {
		return
	}
	r.interval = intervalMinutes
	if r.c == nil {
		return
	}
	r.c.Stop()
	r.c = nil
	r.start()
	slog.Info("publish schedule updated", "interval_minutes", intervalMinutes)
}

func (r *CronRunner) start() {
	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every 00h%02dm00s", r.interval), func() {
		r.job.ProcessQueue(context.Background())
	})
	c.Start()
	r.c = c
}
