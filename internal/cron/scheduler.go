package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"saldobot/internal/config"
	"saldobot/internal/feed"
	"saldobot/internal/notify"
	"saldobot/internal/pkg/utils"
	"saldobot/internal/reconcile"
	"saldobot/internal/repository"
)

// Scheduler manages the periodic reconciliation tasks: the settlement feed
// poll, the expiry sweep, and the daily top-up report. Each task is
// independent; a slow or failing one never blocks the others' schedules.
type Scheduler struct {
	cron   *cron.Cron
	cfg    *config.Config
	poller *feed.Poller
	reaper *reconcile.Reaper
	ledger *repository.LedgerRepository
	sink   notify.Sink
	logger *zap.Logger
}

// New creates a new cron scheduler. Poller may be nil when no feed URL is
// configured; the webhook channel still works on its own.
func New(
	cfg *config.Config,
	poller *feed.Poller,
	reaper *reconcile.Reaper,
	ledger *repository.LedgerRepository,
	sink notify.Sink,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		cfg:    cfg,
		poller: poller,
		reaper: reaper,
		ledger: ledger,
		sink:   sink,
		logger: logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	if s.poller != nil {
		interval := s.cfg.Feed.Interval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
			defer s.recoverFromPanic("feed poll")
			s.poller.Tick()
		})
	} else {
		s.logger.Info("Settlement feed polling disabled (no feed URL)")
	}

	reapInterval := s.cfg.Reaper.Interval
	if reapInterval <= 0 {
		reapInterval = 30 * time.Second
	}
	s.cron.AddFunc(fmt.Sprintf("@every %s", reapInterval), func() {
		defer s.recoverFromPanic("expiry sweep")
		s.reaper.Run(time.Now())
	})

	// Daily top-up report - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		defer s.recoverFromPanic("daily report")
		s.dailyReport()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) dailyReport() {
	count, total, err := s.ledger.SumSince(localMidnight(time.Now()))
	if err != nil {
		s.logger.Error("daily report query failed", zap.Error(err))
		return
	}

	s.sink.NotifyAdmin(fmt.Sprintf(
		"<b>📊 Laporan Top Up Harian</b>\n"+
			"🧾 Jumlah transaksi: <b>%d</b>\n"+
			"💰 Total: <b>Rp %s</b>",
		count, utils.FormatRupiah(total),
	))
}

// localMidnight is the start of now's calendar day in the server's zone,
// matching the 23:45 schedule the report runs on.
func localMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *Scheduler) recoverFromPanic(job string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked",
			zap.String("job", job),
			zap.Any("panic", r))
	}
}
