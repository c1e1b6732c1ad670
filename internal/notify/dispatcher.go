package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
	"github.com/technest-ghazi/backend-bnpl/internal/obs"
)

// Dispatcher fans a domain event out to the configured channels. It runs in
// the worker process as the asynq handler for TaskOrderEvent.
type Dispatcher struct {
	Email       common.EmailSender
	AdminEmails []string
	Webhook     *WebhookClient
	Log         zerolog.Logger
}

// HandleTask decodes the event and delivers it. Channel failures are joined
// so asynq retries the whole task.
func (d *Dispatcher) HandleTask(ctx context.Context, task *asynq.Task) error {
	var event events.Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		// A payload that never decodes will never succeed on retry.
		return fmt.Errorf("notify: decode event: %v: %w", err, asynq.SkipRetry)
	}
	return d.Dispatch(ctx, event)
}

// Dispatch delivers one event to every channel.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) error {
	var joined error
	if d.Email != nil {
		subject, body := renderEmail(event)
		for _, to := range d.AdminEmails {
			err := d.Email.Send(to, subject, body)
			countDelivery("email", err)
			if err != nil {
				joined = errors.Join(joined, fmt.Errorf("notify: email %s: %w", to, err))
			}
		}
	}
	if d.Webhook != nil {
		err := d.Webhook.Deliver(ctx, event)
		countDelivery("webhook", err)
		if err != nil {
			joined = errors.Join(joined, fmt.Errorf("notify: webhook: %w", err))
		}
	}
	if joined != nil {
		d.Log.Warn().Err(joined).Str("topic", event.Topic).Str("aggregate_id", event.AggregateID).Msg("notification delivery incomplete")
	}
	return joined
}

func countDelivery(channel string, err error) {
	if obs.NotificationDeliveriesTotal == nil {
		return
	}
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	obs.NotificationDeliveriesTotal.WithLabelValues(channel, result).Inc()
}

func renderEmail(event events.Event) (subject, body string) {
	switch event.Topic {
	case events.TopicOrderCreated:
		subject = "New order placed"
	case events.TopicInstallmentPaid:
		subject = "Installment payment recorded"
	case events.TopicInstallmentOverdue:
		subject = "Installment overdue"
	case events.TopicOrderCompleted:
		subject = "Order fully paid"
	default:
		subject = "Order update: " + event.Topic
	}
	body = fmt.Sprintf("<p>Event <strong>%s</strong> for order %s.</p><pre>%s</pre>",
		event.Topic, event.AggregateID, string(event.Payload))
	return subject, body
}
