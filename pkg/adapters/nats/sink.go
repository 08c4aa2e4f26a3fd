// Package nats publishes conversation events to a NATS server.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the lower-cased event type.
const DefaultSubjectPrefix = "omnibot.events"

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// Sink implements ports.EventSink over NATS core publish.
// Messages carry the event id in the Nats-Msg-Id header so JetStream streams dedupe redeliveries.
type Sink struct {
	pub    Publisher
	prefix string
}

// NewSink wraps an existing publisher.
func NewSink(pub Publisher, prefix string) *Sink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Sink{pub: pub, prefix: strings.TrimSuffix(prefix, ".")}
}

func (s *Sink) Name() string { return "nats" }

// Subject returns the subject an event type is published on, e.g. omnibot.events.conversation_updated.
func (s *Sink) Subject(kind domain.EventType) string {
	return s.prefix + "." + strings.ToLower(string(kind))
}

func (s *Sink) Deliver(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := nats.NewMsg(s.Subject(event.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	msg.Header.Set("Omnibot-Conversation-Id", event.ConversationID)

	if err := s.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Config holds NATS connection settings.
type Config struct {
	URL   string
	Token string
	Name  string
}

// Connect dials NATS with reconnect handling that logs through logger.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := cfg.Name
	if name == "" {
		name = "omnibot"
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS error", "err", err)
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
