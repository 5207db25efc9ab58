package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/umoja-sacco/umoja-core/internal/app"
	"github.com/umoja-sacco/umoja-core/internal/lending/loans"
	"github.com/umoja-sacco/umoja-core/internal/platform/db"
	"github.com/umoja-sacco/umoja-core/jobs"
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

	loansRepo := loans.NewRepository(pool)
	loansService := loans.NewService(loansRepo, nil, nil, nil)
	integrity := jobs.NewLedgerIntegrityChecker(pool, logger)

	overdueTask, err := jobs.NewOverdueScanTask(jobs.OverdueScanPayload{})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOverdueScan, Handler: jobs.OverdueScanHandler(loansService, logger)},
			{Type: jobs.TaskLedgerIntegrity, Handler: jobs.LedgerIntegrityHandler(integrity)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 0 * * *", Task: overdueTask},
			{Spec: "45 0 * * *", Task: jobs.NewLedgerIntegrityTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
