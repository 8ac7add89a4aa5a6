package services

import (
	"context"
	"log/slog"

	"github.com/inkpost/blogapi/types"
)

// EventPublisher delivers content change events to downstream consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event types.Event) error
}

// emit publishes best effort; a broker failure never fails the write that
// already committed.
func emit(ctx context.Context, publisher EventPublisher, event types.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish event failed",
			slog.String("type", event.Type),
			slog.String("post_id", event.PostID),
			slog.String("error", err.Error()))
	}
}
