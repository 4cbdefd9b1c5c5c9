package scheduler

import (
	"context"
	"fmt"

	"importdesk_backend/internal/events"
	"importdesk_backend/platform/config"
	"importdesk_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes durable recalculation tasks and replays them onto the
// event bus, where the planning module's subscription does the actual work.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) (*Worker, error) {
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
		server: server,
		mux:    mux,
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskSupplierRecalculate, w.handleSupplierRecalculate)

	return w, nil
}

// handleSupplierRecalculate publishes synchronously so task failures are
// reported back to asynq and retried with its backoff.
func (w *Worker) handleSupplierRecalculate(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseSupplierRecalculatePayload(task)
	if err != nil {
		return err
	}

	supplierID, err := uuid.Parse(payload.SupplierID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.SupplierLeadTimeChanged{
		BaseEvent:           events.NewBaseEvent(),
		SupplierID:          supplierID,
		ProductionTimeWeeks: payload.ProductionTimeWeeks,
		ShippingTimeWeeks:   payload.ShippingTimeWeeks,
		HasAdvancePayment:   payload.HasAdvancePayment,
	})
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
