package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/userdir/apiserver/internal/mq"
	"github.com/userdir/apiserver/types"
)

type fakeBroker struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
	inbox   []mq.Message
	acked   int
	nacked  int
}

func (f *fakeBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.channel = channel
	f.data = data
	f.attrs = attrs
	return "msg-1", nil
}

func (f *fakeBroker) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	for _, msg := range f.inbox {
		if err := handler(ctx, msg); err != nil {
			f.nacked++
			continue
		}
		f.acked++
	}
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	broker := &fakeBroker{}
	pub := NewPublisher(broker, "user-events")

	user := types.User{ID: 4, Name: "Ana", Email: "a@x.com", Phone: "555"}
	err := pub.Publish(context.Background(), types.UserEvent{
		Type:       types.UserCreated,
		UserID:     4,
		User:       &user,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if broker.channel != "user-events" {
		t.Errorf("channel = %q", broker.channel)
	}
	if broker.attrs["event_type"] != "user.created" {
		t.Errorf("event_type attr = %q", broker.attrs["event_type"])
	}

	var got types.UserEvent
	if err := json.Unmarshal(broker.data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID == "" || got.ID != broker.attrs["event_id"] {
		t.Errorf("event id = %q, attr = %q", got.ID, broker.attrs["event_id"])
	}
	if got.User == nil || got.User.Email != "a@x.com" {
		t.Errorf("payload user = %+v", got.User)
	}
}

func TestPublisher_PublishError(t *testing.T) {
	broker := &fakeBroker{err: errors.New("channel closed")}
	pub := NewPublisher(broker, "user-events")

	err := pub.Publish(context.Background(), types.UserEvent{Type: types.UserDeleted, UserID: 1})
	if !errors.Is(err, broker.err) {
		t.Errorf("Publish() error = %v, want wrapped %v", err, broker.err)
	}
}

func TestConsume(t *testing.T) {
	good, _ := json.Marshal(types.UserEvent{ID: "e1", Type: types.UserUpdated, UserID: 2})
	failing, _ := json.Marshal(types.UserEvent{ID: "e2", Type: types.UserDeleted, UserID: 3})
	broker := &fakeBroker{inbox: []mq.Message{
		{ID: "1", Data: good},
		{ID: "2", Data: []byte("not json")},
		{ID: "3", Data: failing},
	}}

	var seen []string
	err := Consume(context.Background(), broker, "user-events", func(ctx context.Context, ev types.UserEvent) error {
		seen = append(seen, ev.ID)
		if ev.ID == "e2" {
			return errors.New("handler failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	if len(seen) != 2 || seen[0] != "e1" || seen[1] != "e2" {
		t.Errorf("seen = %v", seen)
	}
	if broker.acked != 2 || broker.nacked != 1 {
		t.Errorf("acked = %d, nacked = %d, want 2 and 1", broker.acked, broker.nacked)
	}
}
