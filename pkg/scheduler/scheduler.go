package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"RescueHub/pkg/logger"
)

// Scheduler runs background maintenance jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddJob registers fn under the given cron spec. Panics inside jobs are
// recovered and logged so one bad run cannot kill the process.
func (s *Scheduler) AddJob(spec, name string, fn func() error) error {
	_, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("job %s panicked: %v", name, r)
			}
		}()
		start := time.Now()
		if err := fn(); err != nil {
			logger.Errorf("job %s failed after %s: %v", name, time.Since(start), err)
			return
		}
		logger.Debugf("job %s finished in %s", name, time.Since(start))
	})
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
