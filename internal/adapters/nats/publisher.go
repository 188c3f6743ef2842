package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

const (
	// ThumbnailStream holds generated-thumbnail events.
	ThumbnailStream = "IMAGERY_THUMBNAILS"
	// ThumbnailSubjects matches every thumbnail subject.
	ThumbnailSubjects = thumbnailPrefix + ">"

	thumbnailPrefix = "imagery.thumbnail."
)

// ThumbnailSubject returns the subject an event for year is published on.
func ThumbnailSubject(year int) string {
	return thumbnailPrefix + strconv.Itoa(year)
}

// SubjectYear is the inverse of ThumbnailSubject.
func SubjectYear(subject string) (int, bool) {
	rest, ok := strings.CutPrefix(subject, thumbnailPrefix)
	if !ok {
		return 0, false
	}
	year, err := strconv.Atoi(rest)
	return year, err == nil
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the thumbnail stream exists.
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
		Name:      ThumbnailStream,
		Subjects:  []string{ThumbnailSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishThumbnail implements ports.EventPublisher.
func (p *Publisher) PublishThumbnail(ctx context.Context, event *domain.ThumbnailEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ThumbnailSubject(event.Year), data, nats.Context(ctx), nats.MsgId(event.ID))
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
	return nil
}

// Conn returns the underlying connection, shared with the WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("earthimagery"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
