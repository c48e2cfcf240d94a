package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saldobot/internal/bootstrap"
	"saldobot/internal/config"
	cronpkg "saldobot/internal/cron"
	"saldobot/internal/deposit"
	"saldobot/internal/feed"
	"saldobot/internal/gateway"
	"saldobot/internal/handler"
	"saldobot/internal/middleware"
	"saldobot/internal/notify"
	"saldobot/internal/reconcile"
	"saldobot/internal/repository"
	"saldobot/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Repositories ---
	depositRepo := repository.NewDepositRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)

	if pending, err := depositRepo.CountPending(); err == nil {
		logger.Info("Pending deposits outstanding", zap.Int64("count", pending))
	}

	// --- Notification sink ---
	var sink notify.Sink = notify.NewLogSink(logger)
	if cfg.Bot.Token != "" {
		tgSink, err := notify.NewTelegramSink(cfg.Bot.Token, cfg.Bot.AdminChatID, logger)
		if err != nil {
			logger.Warn("Telegram sink unavailable, notifications are log-only", zap.Error(err))
		} else {
			sink = tgSink
		}
	}

	// --- Reconciliation engine ---
	engine := reconcile.NewEngine(depositRepo, ledgerRepo, sink, logger)
	reaper := reconcile.NewReaper(depositRepo, sink, logger)

	// --- Deposit service (consumed by the conversational UI) ---
	qris := gateway.NewQRISGateway(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.QRString)
	depositService := deposit.NewService(depositRepo, userRepo, qris, deposit.Config{
		TTL:         cfg.Deposit.TTL,
		Debounce:    cfg.Deposit.Debounce,
		MaxPending:  cfg.Deposit.MaxPending,
		OffsetMin:   cfg.Deposit.OffsetMin,
		OffsetMax:   cfg.Deposit.OffsetMax,
		MaxAttempts: cfg.Deposit.MaxAttempts,
	}, logger)

	// --- Settlement feed poller ---
	var poller *feed.Poller
	if cfg.Feed.URL != "" {
		payload := feedPayload(cfg.Feed)
		poller = feed.NewPoller(cfg.Feed.URL, cfg.Feed.FetchTimeout, payload, engine, logger)
	}

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	orderDeduper, dedupeErr := middleware.NewOrderDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true
	webhookHandler := handler.NewWebhookHandler(engine, logger)
	depositHandler := handler.NewDepositHandler(depositService, userRepo, ledgerRepo, logger)
	router.Setup(e, webhookHandler, depositHandler, orderDeduper)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg, poller, reaper, ledgerRepo, sink, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting saldobot server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// feedPayload builds the aggregator auth payload fresh per tick; the
// upstream signature embeds the request time.
func feedPayload(cfg config.FeedConfig) feed.PayloadFunc {
	return func() map[string]string {
		return map[string]string{
			"username":     cfg.Username,
			"token":        cfg.Token,
			"request_time": strconv.FormatInt(time.Now().Unix(), 10),
		}
	}
}
