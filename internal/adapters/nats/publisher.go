package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/maptrace/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding fragment changes.
	StreamName = "MAP_FRAGMENTS"
	// SubjectPrefix is followed by the session id.
	SubjectPrefix = "maptrace.fragment."
)

// SessionSubject returns the subject fragment changes of one session are
// published on.
func SessionSubject(session string) string {
	return SubjectPrefix + session
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the fragment stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		// Only the latest fragment per session matters to late readers.
		MaxMsgsPerSubject: 16,
		Storage:           nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishFragmentChange(ctx context.Context, change *domain.FragmentChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SessionSubject(change.Session), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for plain subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection that keeps reconnecting.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("maptrace"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
