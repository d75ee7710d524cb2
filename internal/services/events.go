package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/goaltrackr/apiserver/types"
)

const publishTimeout = 3 * time.Second

// EventPublisher sends a payload to a named channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Events publishes goal and progress lifecycle events. A nil *Events, or one
// without a publisher, drops events silently.
type Events struct {
	publisher EventPublisher
	channel   string
	now       func() time.Time
}

func NewEvents(publisher EventPublisher, channel string) *Events {
	return &Events{publisher: publisher, channel: channel, now: time.Now}
}

// Emit publishes event. Failures are logged and never returned: the change
// that triggered the event has already been stored.
func (e *Events) Emit(ctx context.Context, event types.Event) {
	if e == nil || e.publisher == nil {
		return
	}
	if event.At.IsZero() {
		event.At = e.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode event", "type", event.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if _, err := e.publisher.Publish(ctx, e.channel, data, map[string]string{"type": event.Type}); err != nil {
		slog.Warn("failed to publish event", "type", event.Type, "channel", e.channel, "error", err)
	}
}
