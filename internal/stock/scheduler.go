package stock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the part of Service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, from, to time.Time) (int, error)
}

// Scheduler refreshes the trailing window of history on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	target  Refresher
	days    int
	logger  *zap.Logger
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	stopped sync.Once
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such
// as "@daily") and registers the refresh job.
func NewScheduler(schedule string, days int, target Refresher, logger *zap.Logger) (*Scheduler, error) {
	if days <= 0 {
		days = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		target: target,
		days:   days,
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels a running refresh and waits for it to return.
func (s *Scheduler) Stop() {
	s.stopped.Do(func() {
		s.cancel()
		<-s.cron.Stop().Done()
	})
}

func (s *Scheduler) runOnce() {
	to := s.now().UTC()
	from := to.AddDate(0, 0, -s.days)
	n, err := s.target.Refresh(s.ctx, from, to)
	if err != nil {
		s.logger.Warn("scheduled stock refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled stock refresh done", zap.Int("rows", n))
}
