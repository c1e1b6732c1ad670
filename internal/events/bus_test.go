package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/technest-ghazi/backend-bnpl/internal/events"
)

type stubStore struct {
	lastTopic     string
	lastAggregate string
	lastPayload   []byte
	err           error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	s.lastTopic = topic
	s.lastAggregate = aggregateID
	s.lastPayload = payload
	if s.err != nil {
		return events.Event{}, s.err
	}
	return events.Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now(),
	}, nil
}

type captureScheduler struct {
	events []events.Event
	err    error
}

func (c *captureScheduler) Schedule(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	bus := &events.Bus{Store: store}

	aggregate := uuid.NewString()
	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, aggregate, map[string]any{"grandTotal": 129999})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, ev.Topic)
	require.Equal(t, aggregate, ev.AggregateID)
	require.Equal(t, events.TopicOrderCreated, store.lastTopic)
	require.True(t, json.Valid(store.lastPayload))
}

func TestEmitFansOut(t *testing.T) {
	store := &stubStore{}
	sched := &captureScheduler{}
	notif := &captureNotifier{}
	bus := &events.Bus{Store: store, Scheduler: sched, Notifiers: []events.Notifier{notif}}

	_, err := bus.Emit(context.Background(), events.TopicInstallmentPaid, uuid.NewString(), nil)
	require.NoError(t, err)
	require.Len(t, sched.events, 1)
	require.Len(t, notif.events, 1)
	require.JSONEq(t, "{}", string(sched.events[0].Payload))
}

func TestEmitHandlerFailureKeepsEvent(t *testing.T) {
	store := &stubStore{}
	sched := &captureScheduler{err: errors.New("queue down")}
	bus := &events.Bus{Store: store, Scheduler: sched}

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, uuid.NewString(), "")
	require.Error(t, err)
	require.NotEmpty(t, ev.ID)
}

func TestEmitValidation(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), " ", uuid.NewString(), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, uuid.NewString(), "not json")
	require.Error(t, err)
}
