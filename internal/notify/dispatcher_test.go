package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
	"github.com/technest-ghazi/backend-bnpl/internal/notify"
)

func sampleEvent(t *testing.T) events.Event {
	t.Helper()
	return events.Event{
		ID:          "11111111-2222-3333-4444-555555555555",
		Topic:       events.TopicOrderCreated,
		AggregateID: "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		Payload:     json.RawMessage(`{"grandTotal":129999}`),
		OccurredAt:  time.Now(),
	}
}

func TestDispatchSendsAdminEmails(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	d := &notify.Dispatcher{
		Email:       outbox,
		AdminEmails: []string{"ops@technest.example", "owner@technest.example"},
		Log:         zerolog.Nop(),
	}

	require.NoError(t, d.Dispatch(context.Background(), sampleEvent(t)))
	require.Len(t, outbox.Outbox, 2)
	require.Equal(t, "New order placed", outbox.Outbox[0].Subject)
	require.Contains(t, outbox.Outbox[0].HTML, "order.created")
}

func TestDispatchPostsWebhook(t *testing.T) {
	var gotTopic string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTopic = r.Header.Get("X-Event-Topic")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := &notify.Dispatcher{
		Webhook: notify.NewWebhookClient(srv.URL, "s3cret", time.Second),
		Log:     zerolog.Nop(),
	}
	require.NoError(t, d.Dispatch(context.Background(), sampleEvent(t)))
	require.Equal(t, events.TopicOrderCreated, gotTopic)
}

func TestDispatchWebhookFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := &notify.Dispatcher{
		Webhook: notify.NewWebhookClient(srv.URL, "", time.Second),
		Log:     zerolog.Nop(),
	}
	require.Error(t, d.Dispatch(context.Background(), sampleEvent(t)))
}

func TestHandleTaskSkipsRetryOnBadPayload(t *testing.T) {
	d := &notify.Dispatcher{Log: zerolog.Nop()}
	task := asynq.NewTask(notify.TaskOrderEvent, []byte("not json"))
	err := d.HandleTask(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
