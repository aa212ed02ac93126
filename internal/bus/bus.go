// Package bus provides event bus implementations for tradescan.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// MetaReplyTo carries the reply topic of a Request.
const MetaReplyTo = "reply_to"

// DefaultRequestTimeout bounds a Request when ctx carries no deadline.
const DefaultRequestTimeout = 30 * time.Second

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus is closed")

// New creates a new event bus based on configuration.
// "channel" returns an in-process ChannelBus; "nats" returns a NATSBus.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel", "":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}

// Reply answers a message received through Request. Messages without a
// reply topic are ignored.
func Reply(ctx context.Context, b domain.EventBus, msg *domain.Message, payload []byte) error {
	replyTo := msg.Metadata[MetaReplyTo]
	if replyTo == "" {
		return nil
	}
	return b.Publish(ctx, replyTo, payload)
}

func newMessage(topic string, payload []byte) *domain.Message {
	return &domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}
}
