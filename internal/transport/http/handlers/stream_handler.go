package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/taskhub/backend/internal/core/services"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

// StreamHandler pushes notifications to connected clients over a websocket.
// One connection per subscribe call; the in-app inbox remains the source of
// truth, the stream is best effort.
type StreamHandler struct {
	notifications *services.NotificationService
	logger        *logger.Logger
}

func NewStreamHandler(notifications *services.NotificationService, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{notifications: notifications, logger: logger}
}

func (h *StreamHandler) Handle(c *websocket.Conn) {
	idStr := c.Params("userID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		h.logger.Warnw("stream_invalid_user_id", "id", idStr)
		c.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid user id"}`))
		c.Close()
		return
	}
	userID := uint(id)

	feed, unsubscribe := h.notifications.Subscribe(userID)
	defer unsubscribe()

	h.logger.Infow("stream_connected", "user_id", userID)

	// Drain client frames so pongs and close frames are processed. Any read
	// error ends the session.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			h.logger.Infow("stream_closed", "user_id", userID)
			return
		case notification := <-feed:
			payload, err := json.Marshal(notification)
			if err != nil {
				h.logger.Errorw("stream_marshal_failed", "user_id", userID, "error", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Infow("stream_write_failed", "user_id", userID, "error", err)
				c.Close()
				<-done
				return
			}
		}
	}
}
