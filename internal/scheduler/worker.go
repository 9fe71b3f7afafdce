package scheduler

import (
	"context"
	"fmt"

	"petcare_ops_backend/platform/config"
	"petcare_ops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OfferExpirer reverts a work offer that went unanswered past its deadline.
type OfferExpirer interface {
	ExpireOffer(ctx context.Context, requestID uuid.UUID) error
}

// OutboxDeliverer delivers one claimed outbox record to its channels.
type OutboxDeliverer interface {
	Deliver(ctx context.Context, outboxID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	expirer   OfferExpirer
	deliverer OutboxDeliverer
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, expirer OfferExpirer, deliverer OutboxDeliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		expirer:   expirer,
		deliverer: deliverer,
		log:       log,
	}

	mux.HandleFunc(TaskOfferExpiry, w.handleOfferExpiry)
	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) handleOfferExpiry(ctx context.Context, task *asynq.Task) error {
	if w.expirer == nil {
		return nil
	}

	payload, err := ParseOfferExpiryPayload(task)
	if err != nil {
		return err
	}

	requestID, err := uuid.Parse(payload.RequestID)
	if err != nil {
		return err
	}

	return w.expirer.ExpireOffer(ctx, requestID)
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	if w.deliverer == nil {
		return nil
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	return w.deliverer.Deliver(ctx, outboxID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
