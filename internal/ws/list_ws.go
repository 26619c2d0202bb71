package ws

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-engine/internal/models"
	"chat-engine/internal/observability"
)

// ListSnapshotter supplies the current conversation list for the snapshot
// sent on connect.
type ListSnapshotter interface {
	List(query string) []models.Conversation
}

// ListWebSocketHandler handles conversation-list websocket connections.
type ListWebSocketHandler struct {
	hub      *Hub
	snapshot ListSnapshotter
}

// NewListWebSocketHandler constructs a ListWebSocketHandler. snapshot may be
// nil, in which case clients receive events only.
func NewListWebSocketHandler(hub *Hub, snapshot ListSnapshotter) *ListWebSocketHandler {
	return &ListWebSocketHandler{hub: hub, snapshot: snapshot}
}

// Handle upgrades the connection and registers the client with the list channel.
func (h *ListWebSocketHandler) Handle(c *gin.Context) {
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
	h.hub.AddListClient(conn, info)

	if h.snapshot != nil {
		event := models.ListEvent{Type: "conversations", Conversations: h.snapshot.List("")}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("websocket snapshot write error: %v", err)
		}
	}

	observability.IncWSActive("list")
	observability.IncWSEvent("list", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.list", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("list", "", "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveListClient(conn)
			observability.DecWSActive("list")
			observability.IncWSEvent("list", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.list", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("list", "", "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("list", "ws_error")
				}
				return
			}
		}
	}()
}
