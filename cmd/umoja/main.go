package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/journals"
	"github.com/umoja-sacco/umoja-core/internal/accounting/reports"
	"github.com/umoja-sacco/umoja-core/internal/app"
	"github.com/umoja-sacco/umoja-core/internal/lending/loans"
	"github.com/umoja-sacco/umoja-core/internal/lending/posting"
	"github.com/umoja-sacco/umoja-core/internal/observability"
	"github.com/umoja-sacco/umoja-core/internal/platform/cache"
	"github.com/umoja-sacco/umoja-core/internal/platform/db"
	"github.com/umoja-sacco/umoja-core/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports are uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	if created, err := accountsService.Seed(ctx); err != nil {
		logger.Error("seed chart of accounts", slog.Any("error", err))
		os.Exit(1)
	} else if created > 0 {
		logger.Info("seeded chart of accounts", slog.Int("created", created))
	}

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, auditLogger, metrics)

	reportsRepo := reports.NewRepository(pool)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportsService := reports.NewService(reportsRepo, reportCache, metrics)
	journalsService.WithCacheInvalidator(reportCache)

	ledgerAdapter := posting.NewAdapter(accountsService, journalsService)
	loansRepo := loans.NewRepository(pool)
	loansService := loans.NewService(loansRepo, ledgerAdapter, auditLogger, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accounts.NewHandler(logger, accountsService),
		JournalsHandler: journals.NewHandler(logger, journalsService),
		ReportsHandler:  reports.NewHandler(logger, reportsService),
		LoansHandler:    loans.NewHandler(logger, loansService),
		Pool:            pool,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
