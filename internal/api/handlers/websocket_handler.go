package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safety-tracker/backend/internal/dashboard"
	"github.com/safety-tracker/backend/internal/metrics"
	"github.com/safety-tracker/backend/pkg/logger"
)

// WebSocketHandler runs one dashboard session per connection. The session
// holds that user's cross-filter state; events arrive as JSON and each one
// is answered with an update carrying only the charts it recomputed.
type WebSocketHandler struct {
	coordinator *dashboard.Coordinator
}

func NewWebSocketHandler(coordinator *dashboard.Coordinator) *WebSocketHandler {
	return &WebSocketHandler{coordinator: coordinator}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := uuid.NewString()
	logger.Info("Dashboard session started", zap.String("session_id", sessionID))
	metrics.ActiveSessions.Inc()

	defer func() {
		c.Close()
		metrics.ActiveSessions.Dec()
		logger.Info("Dashboard session closed", zap.String("session_id", sessionID))
	}()

	ctx := context.Background()
	sess := h.coordinator.NewSession()

	initial := h.coordinator.RebuildAll(ctx, &sess)
	if err := c.WriteJSON(initial); err != nil {
		logger.Error("Failed to send initial dashboard state",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	for {
		var ev dashboard.Event
		if err := c.ReadJSON(&ev); err != nil {
			logger.Debug("Dashboard connection read ended",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			break
		}

		update, err := h.coordinator.Apply(ctx, &sess, ev)
		if err != nil {
			logger.Warn("Rejected dashboard event",
				zap.String("session_id", sessionID),
				zap.String("type", ev.Type),
				zap.Error(err),
			)
			h.sendError(c, err.Error())
			continue
		}

		if err := c.WriteJSON(update); err != nil {
			logger.Error("Failed to send dashboard update",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			break
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}
