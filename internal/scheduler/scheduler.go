// README: Cron scheduler for housekeeping jobs (pending order expiry, idle session sweep).
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pepemlv/partysavingrental/internal/config"
	"github.com/pepemlv/partysavingrental/internal/logger"
)

// OrderExpirer cancels orders left pending past maxAge.
type OrderExpirer interface {
	ExpirePending(ctx context.Context, maxAge time.Duration) (int, error)
}

// SessionSweeper drops idle booking sessions.
type SessionSweeper interface {
	SweepIdle() int
}

type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	orders   OrderExpirer
	sessions SessionSweeper
}

func New(cfg config.SchedulerConfig, orders OrderExpirer, sessions SessionSweeper) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)
	s := &Scheduler{cron: c, cfg: cfg, orders: orders, sessions: sessions}
	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	if _, err := s.cron.AddFunc(s.cfg.ExpirePendingSpec, s.ExpirePendingOrders); err != nil {
		logger.Error("failed to register ExpirePendingOrders job", "spec", s.cfg.ExpirePendingSpec, "error", err)
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepSessionsSpec, s.SweepSessions); err != nil {
		logger.Error("failed to register SweepSessions job", "spec", s.cfg.SweepSessionsSpec, "error", err)
		return err
	}
	logger.Info("cron jobs registered", "count", len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) ExpirePendingOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	maxAge := time.Duration(s.cfg.PendingOrderTTLHour) * time.Hour
	n, err := s.orders.ExpirePending(ctx, maxAge)
	if err != nil {
		logger.Error("expire pending orders failed", "expired", n, "error", err)
	}
}

func (s *Scheduler) SweepSessions() {
	if n := s.sessions.SweepIdle(); n > 0 {
		logger.Info("swept idle booking sessions", "count", n)
	}
}

func (s *Scheduler) Start() {
	logger.Info("starting cron scheduler")
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("cron scheduler stopped")
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
