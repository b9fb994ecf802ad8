package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/klondike/game/service"
)

// DefaultPrefix is the first token of every subject
const DefaultPrefix = "klondike"

// Conn is the part of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher sends game events to NATS as JSON, one message per event.
// It implements service.EventPublisher.
type Publisher struct {
	conn   Conn
	prefix string
}

var _ service.EventPublisher = (*Publisher)(nil)

// Connect dials a NATS server with the reconnect settings used for
// publishing game events
func Connect(url, name string) (*natsgo.Conn, error) {
	if url == "" {
		url = natsgo.DefaultURL
	}

	opts := []natsgo.Option{
		natsgo.Name(name),
		natsgo.Timeout(10 * time.Second),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.MaxReconnects(5),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := natsgo.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// NewPublisher creates a publisher. An empty prefix means DefaultPrefix.
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the subject events of a session are published on
func (p *Publisher) Subject(sessionID string) string {
	return Subject(p.prefix, sessionID)
}

// Subject builds <prefix>.sessions.<id>.events. An empty session ID gives
// the wildcard subject matching every session.
func Subject(prefix, sessionID string) string {
	if sessionID == "" {
		sessionID = "*"
	}
	return fmt.Sprintf("%s.sessions.%s.events", prefix, sessionID)
}

// Publish sends events in order. Every event is attempted; the returned
// error joins the failures.
func (p *Publisher) Publish(ctx context.Context, sessionID string, events []service.GameEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := p.Subject(sessionID)
	var errs []error
	for _, ev := range events {
		if ev.SessionID == "" {
			ev.SessionID = sessionID
		}
		data, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal %s event: %w", ev.Type, err))
			continue
		}
		if err := p.conn.Publish(subject, data); err != nil {
			errs = append(errs, fmt.Errorf("publish %s event to %s: %w", ev.Type, subject, err))
		}
	}

	log.Debug().Str("subject", subject).Int("events", len(events)).Int("failed", len(errs)).Msg("events published")
	return errors.Join(errs...)
}

// Close drains the connection
func (p *Publisher) Close() error {
	return p.conn.Drain()
}

// Watch subscribes to the events of one session, or of every session when
// sessionID is empty, and calls fn for each until ctx is done
func Watch(ctx context.Context, nc *natsgo.Conn, prefix, sessionID string, fn func(subject string, ev service.GameEvent)) error {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sub, err := nc.Subscribe(Subject(prefix, sessionID), func(m *natsgo.Msg) {
		var ev service.GameEvent
		if err := json.Unmarshal(m.Data, &ev); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("bad event payload")
			return
		}
		fn(m.Subject, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	<-ctx.Done()
	return sub.Unsubscribe()
}
