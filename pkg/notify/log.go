package notify

import (
	"context"
	"log/slog"

	"github.com/aretw0/omnibot/pkg/domain"
)

// LogSink writes every event to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Name() string { return "log" }

func (s LogSink) Deliver(ctx context.Context, event domain.Event) error {
	s.Logger.InfoContext(ctx, "conversation event",
		"event_id", event.ID,
		"type", event.Type,
		"conversation_id", event.ConversationID,
		"payload", event.Payload)
	return nil
}
