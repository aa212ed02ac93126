package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels or NATS.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Request sends a message and waits for a response (request-reply pattern).
	Request(ctx context.Context, topic string, payload []byte) ([]byte, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string `mapstructure:"type"`

	// Channel settings
	ChannelBufferSize int `mapstructure:"channel_buffer_size"`

	// NATS settings
	NATSUrl           string `mapstructure:"nats_url"`
	NATSToken         string `mapstructure:"nats_token"`
	NATSMaxReconnects int    `mapstructure:"nats_max_reconnects"`
	NATSReconnectWait int    `mapstructure:"nats_reconnect_wait"` // seconds

	// NATSQueueGroup load-balances compare requests across worker processes.
	NATSQueueGroup string `mapstructure:"nats_queue_group"`
}

// Standard topic names for the document pipeline.
const (
	TopicDocumentExtracted = "tradescan.document.extracted"
	TopicCompareRequested  = "tradescan.compare.requested"
	TopicCompareCompleted  = "tradescan.compare.completed"
	TopicAlert             = "tradescan.alert"
)

// DocumentInput is raw text submitted for extraction or comparison.
type DocumentInput struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// CompareRequest is the payload of TopicCompareRequested.
type CompareRequest struct {
	RequestID string          `json:"request_id"`
	Documents []DocumentInput `json:"documents"`
}

// CompareCompleted is the payload of TopicCompareCompleted and TopicAlert.
type CompareCompleted struct {
	RequestID      string    `json:"request_id"`
	ReportID       string    `json:"report_id"`
	CognitiveScore int       `json:"cognitive_score"`
	Tier           RiskLevel `json:"tier"`
	Error          string    `json:"error,omitempty"`
}
