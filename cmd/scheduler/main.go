package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petcare_ops_backend/internal/email"
	employeerepo "petcare_ops_backend/internal/employees/repository"
	"petcare_ops_backend/internal/events"
	"petcare_ops_backend/internal/notification"
	"petcare_ops_backend/internal/notification/inapp"
	"petcare_ops_backend/internal/notification/outbox"
	"petcare_ops_backend/internal/scheduler"
	srrepo "petcare_ops_backend/internal/servicerequests/repository"
	srservice "petcare_ops_backend/internal/servicerequests/service"
	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/db"
	"petcare_ops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Delivery pipeline: claimed outbox rows become in-app rows and emails
	deliverer := notification.NewDispatcher(outbox.New(pool), inapp.New(pool), employeerepo.New(pool), sender, log)

	// Offer expiry needs the full workflow service so reverts share the
	// request row lock with live accepts and rejects
	requestStore := srrepo.NewStore(pool)
	requestReader := srrepo.New(pool)
	expirer := srservice.New(requestStore, requestReader, employeerepo.New(pool), cfg, cfg, nil, eventBus, log)

	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, expirer, deliverer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
