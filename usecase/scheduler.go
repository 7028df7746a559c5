package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is how often jobs and standings are checked.
const DefaultInterval = 30 * time.Second

// Scheduler drives message jobs and standings posts on a fixed interval.
type Scheduler struct {
	jobs     *MessageJobs
	leagues  *Leagues
	interval time.Duration
	log      logrus.FieldLogger
}

func NewScheduler(jobs *MessageJobs, leagues *Leagues, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{jobs: jobs, leagues: leagues, interval: interval, log: log}
}

func (s *Scheduler) Tick(ctx context.Context) {
	if n := s.jobs.RunDue(ctx); n > 0 {
		s.log.WithField("sent", n).Debug("message jobs sent")
	}
	s.leagues.PostAll(ctx)
}

// Run ticks once right away and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithField("interval", s.interval).Info("job runner started")
	s.Tick(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Tick(ctx)
		}
	}
}
