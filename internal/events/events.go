// Package events turns committed user changes into broker messages and back.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/userdir/apiserver/internal/mq"
	"github.com/userdir/apiserver/types"
)

const (
	attrEventType = "event_type"
	attrEventID   = "event_id"
)

// Broker is the part of mq.MQ the events package needs.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Publisher writes user events as JSON to one channel.
type Publisher struct {
	broker  Broker
	channel string
}

func NewPublisher(broker Broker, channel string) *Publisher {
	return &Publisher{broker: broker, channel: channel}
}

// Publish assigns an id to the event if it has none and sends it.
func (p *Publisher) Publish(ctx context.Context, event types.UserEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	messageID, err := p.broker.Publish(ctx, p.channel, data, map[string]string{
		attrEventType: string(event.Type),
		attrEventID:   event.ID,
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}

	log.WithFields(log.Fields{
		"channel":    p.channel,
		"event_type": event.Type,
		"user_id":    event.UserID,
		"message_id": messageID,
	}).Debug("user event published")
	return nil
}

// Consume delivers decoded events from channel to fn until ctx is done.
// Messages that do not decode are logged and dropped; an error from fn
// requeues the message.
func Consume(ctx context.Context, broker Broker, channel string, fn func(context.Context, types.UserEvent) error) error {
	return broker.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		var event types.UserEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.WithField("message_id", msg.ID).WithError(err).Warn("dropping undecodable user event")
			return nil
		}
		return fn(ctx, event)
	})
}
