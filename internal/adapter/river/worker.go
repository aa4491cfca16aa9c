package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// Broker delivers a serialized event to the topic exchange.
type Broker interface {
	PublishTopic(ctx context.Context, routingKey string, body []byte) error
}

// EventWorker dispatches queued domain events to the broker. With a nil
// broker it only logs, which keeps local development working without a
// RabbitMQ instance.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]

	broker Broker
}

// Work delivers a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "dispatching event",
		"routing_key", job.Args.RoutingKey,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if w.broker == nil {
		return nil
	}

	return w.broker.PublishTopic(ctx, job.Args.RoutingKey, job.Args.Payload)
}
