package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tazhate/trackbot/config"
)

const jobTimeout = time.Minute

// Refresher reloads reminders from the authoritative service.
type Refresher interface {
	RefreshReminders(ctx context.Context) error
}

// Promoter turns due upcoming reminders into pending ones.
type Promoter interface {
	PromoteDue(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	refresher Refresher
	promoter  Promoter
	logger    *slog.Logger
	ctx       context.Context
}

func New(cfg *config.Config, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:      c,
		cfg:       cfg,
		refresher: refresher,
		logger:    logger.With("component", "scheduler"),
		ctx:       context.Background(),
	}
}

// SetPromoter enables the promotion job. Only the local backend promotes.
func (s *Scheduler) SetPromoter(p Promoter) {
	s.promoter = p
}

// Start registers the jobs and runs them until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx

	if _, err := s.cron.AddFunc(s.cfg.RefreshSchedule, s.refresh); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}

	if s.promoter != nil {
		if _, err := s.cron.AddFunc(s.cfg.PromoteSchedule, s.promote); err != nil {
			return fmt.Errorf("add promote job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"tz", s.cfg.Timezone.String(),
		"refresh", s.cfg.RefreshSchedule,
		"promote", s.cfg.PromoteSchedule,
		"promoting", s.promoter != nil)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	if err := s.refresher.RefreshReminders(ctx); err != nil {
		s.logger.Warn("refresh reminders", "error", err)
		return
	}
	s.logger.Debug("reminders refreshed")
}

// promote runs before a refresh so the refreshed view shows the new statuses.
func (s *Scheduler) promote() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	n, err := s.promoter.PromoteDue(ctx)
	if err != nil {
		s.logger.Warn("promote reminders", "error", err)
		return
	}
	if n == 0 {
		return
	}
	s.logger.Info("reminders due", "count", n)
	s.refresh()
}
