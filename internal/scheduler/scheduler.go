package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// RefreshWindow is how far ahead of expiry tokens are renewed.
const RefreshWindow = time.Hour

const jobTimeout = 5 * time.Minute

type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the fitness provider token refresh on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	refresher TokenRefresher
	schedule  string
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler accepts standard five field specs and descriptors such as "@every 15m".
func NewScheduler(schedule string, refresher TokenRefresher) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(log.StandardLogger())

	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		refresher: refresher,
		schedule:  schedule,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return errors.Wrapf(err, "invalid TOKEN_REFRESH_SCHEDULE %q", s.schedule)
	}

	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("Token refresh scheduler started")
	return nil
}

// Stop waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	log.Info("Stopping scheduler...")
	s.cancel()
	<-s.cron.Stop().Done()
	log.Info("Scheduler stopped")
}

func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	refreshed, err := s.refresher.RefreshExpiring(ctx, time.Now())
	if err != nil {
		log.WithError(err).Error("Token refresh run failed")
		return
	}

	log.WithField("refreshed", refreshed).Info("Token refresh run finished")
}
