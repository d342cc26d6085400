package server

import (
	"context"
	"log/slog"

	"forum/internal/middleware"
	"forum/internal/notifications"
)

// publishEvent fans a forum event out to feed clients. With Redis the event
// goes through the feed channel so every instance, this one included,
// delivers it; without Redis it is delivered to local clients only.
func (s *Server) publishEvent(ctx context.Context, eventType string, actorID uint, payload any) {
	if !s.flagEnabled(FlagRealtime, 0) || s.hub == nil {
		return
	}

	event, err := notifications.NewEvent(eventType, actorID, payload)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to build event",
			slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}
	raw, err := event.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode event",
			slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}

	if s.notifier.Enabled() {
		// Publishing must not inherit the request's cancellation.
		err := s.notifier.Publish(context.WithoutCancel(ctx), raw)
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "failed to publish event, delivering locally",
			slog.String("type", eventType), slog.String("error", err.Error()))
	}
	s.hub.Deliver(raw)
}

func postEventPayload(postID uint, extra map[string]any) map[string]any {
	payload := map[string]any{"postId": postID}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}
