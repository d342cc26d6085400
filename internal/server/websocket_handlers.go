package server

import (
	"context"
	"errors"
	"log/slog"

	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RequireWebsocketUpgrade rejects plain HTTP requests to the feed and answers
// 503 while the realtime flag is off.
func (s *Server) RequireWebsocketUpgrade(c *fiber.Ctx) error {
	if !s.flagEnabled(FlagRealtime, middleware.UserID(c)) {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeInternal, Message: "Realtime feed is disabled"})
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// WebsocketHandler streams forum events to the connection. Signed-in users and
// anonymous viewers receive the same feed.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		uid, _ := conn.Locals("userID").(uint)

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			msg := `{"type":"error","payload":{"reason":"connection_limit"}}`
			if errors.Is(err, notifications.ErrHubShutdown) {
				msg = `{"type":"error","payload":{"reason":"shutting_down"}}`
			}
			middleware.Logger.WarnContext(context.Background(), "feed registration rejected",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
			_ = conn.Close()
			return
		}
		defer client.Close()

		go client.WritePump()
		client.ReadPump()
	})
}
