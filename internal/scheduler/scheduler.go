package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"
)

// OnSweepDue is called when a scheduled corpus sweep should be enqueued.
type OnSweepDue func()

// Scheduler enqueues the periodic duplicate sweep on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	callback OnSweepDue
}

// New creates a sweep scheduler with a standard 5-field cron spec.
func New(schedule string, cb OnSweepDue) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		callback: cb,
	}
}

// Start registers the sweep entry and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		log.Println("[scheduler] duplicate sweep due")
		s.callback()
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] sweep scheduled (%s)", s.schedule)
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}
