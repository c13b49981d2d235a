package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/ports"
)

// Subscriber delivers fragment changes from NATS.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber wraps an existing connection. The caller keeps ownership of
// conn; Close only removes the subscriptions made here.
func NewSubscriber(conn *nats.Conn) (*Subscriber, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSession relays the raw change payloads of one session. It uses a
// core subscription so nothing is replayed from the stream.
func (s *Subscriber) SubscribeSession(session string, handler func(data []byte)) (ports.Subscription, error) {
	sub, err := s.conn.Subscribe(SessionSubject(session), func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubscribeChanges consumes every fragment change through a durable
// JetStream consumer. An empty durable name creates an ephemeral consumer
// that starts with new messages only.
func (s *Subscriber) SubscribeChanges(ctx context.Context, durable string, handler func(ctx context.Context, change *domain.FragmentChange) error) error {
	opts := []nats.SubOpt{nats.ManualAck(), nats.MaxDeliver(3)}
	if durable != "" {
		opts = append(opts, nats.Durable(durable))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := s.js.Subscribe(SubjectPrefix+">", func(msg *nats.Msg) {
		var change domain.FragmentChange
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			// A payload that never decodes will not decode on redelivery.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &change); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes everything made through SubscribeChanges.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}
