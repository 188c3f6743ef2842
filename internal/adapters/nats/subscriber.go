package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthimagery/internal/core/domain"
)

// ThumbnailHandler receives one decoded event. Returning an error asks
// JetStream to redeliver it.
type ThumbnailHandler func(ctx context.Context, event *domain.ThumbnailEvent) error

// maxRedeliveries bounds retries of events a handler keeps rejecting.
const maxRedeliveries = 3

// Subscriber follows the thumbnail stream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewSubscriber connects to NATS and enables JetStream.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeThumbnails delivers events published from now on to handler,
// restricted to year when year is non-zero. The subscription ends with ctx.
func (s *Subscriber) SubscribeThumbnails(ctx context.Context, year int, handler ThumbnailHandler) error {
	subject := ThumbnailSubjects
	if year != 0 {
		subject = ThumbnailSubject(year)
	}

	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		var event domain.ThumbnailEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed thumbnail event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(maxRedeliveries),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	context.AfterFunc(ctx, func() { _ = sub.Unsubscribe() })
	return nil
}

// Close drains the connection.
func (s *Subscriber) Close() {
	_ = s.conn.Drain()
}
