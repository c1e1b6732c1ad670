package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/technest-ghazi/backend-bnpl/internal/events"
)

// TaskOrderEvent is the asynq task type carrying a domain event to the
// notification worker.
const TaskOrderEvent = "notify:order_event"

// Enqueuer schedules notification tasks for emitted domain events. It
// implements events.DeliveryScheduler.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// Schedule enqueues the event for asynchronous delivery.
func (e Enqueuer) Schedule(_ context.Context, event events.Event) error {
	if e.Client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}
	queue := e.Queue
	if queue == "" {
		queue = "default"
	}
	_, err = e.Client.Enqueue(
		asynq.NewTask(TaskOrderEvent, payload),
		asynq.Queue(queue),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return fmt.Errorf("notify: enqueue event: %w", err)
	}
	return nil
}
