package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-engine/internal/observability"
	"chat-engine/internal/room"
)

// ConversationChecker reports whether a conversation id is known.
type ConversationChecker interface {
	Has(conversationID string) bool
}

// RoomSnapshotter supplies the room's current display entries for the
// snapshot sent on connect.
type RoomSnapshotter interface {
	Messages(conversationID string) []room.Entry
}

// RoomWebSocketHandler handles per-conversation websocket connections.
type RoomWebSocketHandler struct {
	hub      *Hub
	checker  ConversationChecker
	snapshot RoomSnapshotter
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler. snapshot may be
// nil, in which case clients receive events only.
func NewRoomWebSocketHandler(hub *Hub, checker ConversationChecker, snapshot RoomSnapshotter) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, checker: checker, snapshot: snapshot}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client with its room.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	if !h.checker.Has(conversationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	ctx, span := otel.Tracer("chat-engine/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddRoomClient(conversationID, conn, info)

	if h.snapshot != nil {
		if err := conn.WriteJSON(gin.H{"type": "snapshot", "messages": h.snapshot.Messages(conversationID)}); err != nil {
			log.Printf("websocket snapshot write error: %v", err)
		}
	}

	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("room", conversationID, "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	// Keep connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveRoomClient(conversationID, conn)
			observability.DecWSActive("room")
			observability.IncWSEvent("room", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("room", conversationID, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("room", "ws_error")
				}
				return
			}
		}
	}()
}

func wsEventPayload(kind, conversationID, event string, info ConnInfo, durationMs int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":            kind,
			"conversation_id": conversationID,
			"event":           event,
			"conn_id":         info.ConnID,
			"duration_ms":     durationMs,
			"reason":          reason,
		},
		"client": map[string]interface{}{
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
