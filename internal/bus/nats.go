package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// NATSBus carries tradescan events over NATS so the API and any number of
// worker processes can run apart. Every topic is used verbatim as a subject.
//
// Subscriptions to domain.TopicCompareRequested join the configured queue
// group, so each comparison job is delivered to exactly one worker. All other
// topics fan out to every subscriber.
type NATSBus struct {
	conn  *nats.Conn
	queue string

	mu   sync.Mutex
	subs map[string]*natsSubscription
}

type natsSubscription struct {
	bus   *NATSBus
	id    string
	topic string
	sub   *nats.Subscription
}

var _ domain.EventBus = (*NATSBus)(nil)

// NewNATSBus dials cfg.NATSUrl. A server that is not up yet is retried in the
// background by the client rather than failing startup.
func NewNATSBus(cfg domain.EventBusConfig) (*NATSBus, error) {
	url := cfg.NATSUrl
	if url == "" {
		url = nats.DefaultURL
	}
	reconnects := cfg.NATSMaxReconnects
	if reconnects == 0 {
		reconnects = 10
	}
	wait := 2 * time.Second
	if cfg.NATSReconnectWait > 0 {
		wait = time.Duration(cfg.NATSReconnectWait) * time.Second
	}

	opts := []nats.Option{
		nats.Name("tradescan"),
		nats.MaxReconnects(reconnects),
		nats.ReconnectWait(wait),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			var subject string
			if sub != nil {
				subject = sub.Subject
			}
			slog.Error("nats async error", "subject", subject, "error", err)
		}),
	}
	if cfg.NATSToken != "" {
		opts = append(opts, nats.Token(cfg.NATSToken))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	slog.Info("nats bus ready",
		"url", url,
		"connected", conn.IsConnected(),
		"queue_group", cfg.NATSQueueGroup,
	)

	return &NATSBus{
		conn:  conn,
		queue: cfg.NATSQueueGroup,
		subs:  make(map[string]*natsSubscription),
	}, nil
}

func (b *NATSBus) encode(topic string, payload []byte) ([]byte, error) {
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}
	data, err := json.Marshal(newMessage(topic, payload))
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", topic, err)
	}
	return data, nil
}

// Publish sends payload wrapped in a domain.Message envelope.
func (b *NATSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	data, err := b.encode(topic, payload)
	if err != nil {
		return err
	}
	return b.conn.Publish(topic, data)
}

// Subscribe delivers decoded envelopes to handler. A NATS reply inbox is
// surfaced as the MetaReplyTo metadata entry so Reply works unchanged.
func (b *NATSBus) Subscribe(ctx context.Context, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	deliver := func(m *nats.Msg) {
		var msg domain.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			slog.Error("dropping undecodable nats message", "subject", m.Subject, "error", err)
			return
		}
		if msg.Metadata == nil {
			msg.Metadata = map[string]string{}
		}
		if m.Reply != "" {
			msg.Metadata[MetaReplyTo] = m.Reply
		}
		if err := handler(ctx, &msg); err != nil {
			slog.Error("event handler failed",
				"topic", topic,
				"message_id", msg.ID,
				"error", err,
			)
		}
	}

	var (
		ns  *nats.Subscription
		err error
	)
	if b.queue != "" && topic == domain.TopicCompareRequested {
		ns, err = b.conn.QueueSubscribe(topic, b.queue, deliver)
	} else {
		ns, err = b.conn.Subscribe(topic, deliver)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s := &natsSubscription{bus: b, id: uuid.NewString(), topic: topic, sub: ns}
	b.mu.Lock()
	b.subs[s.id] = s
	b.mu.Unlock()
	return s, nil
}

// Request publishes on topic with a reply inbox and returns the payload of
// the first reply. Without a ctx deadline DefaultRequestTimeout applies.
func (b *NATSBus) Request(ctx context.Context, topic string, payload []byte) ([]byte, error) {
	data, err := b.encode(topic, payload)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	reply, err := b.conn.RequestWithContext(ctx, topic, data)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", topic, err)
	}
	var env domain.Message
	if err := json.Unmarshal(reply.Data, &env); err != nil {
		return nil, fmt.Errorf("decode reply from %s: %w", topic, err)
	}
	return env.Payload, nil
}

// Ping round-trips to the server.
func (b *NATSBus) Ping(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return errors.New("nats: not connected")
	}
	return b.conn.FlushWithContext(ctx)
}

// Close unsubscribes everything and closes the connection.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]*natsSubscription)
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.sub.Unsubscribe()
	}
	b.conn.Close()
	return nil
}

// Stats exposes client traffic counters.
func (b *NATSBus) Stats() nats.Statistics {
	return b.conn.Stats()
}

func (s *natsSubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	return s.sub.Unsubscribe()
}

func (s *natsSubscription) Topic() string { return s.topic }
