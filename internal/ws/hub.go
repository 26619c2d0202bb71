package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-engine/internal/models"
	"chat-engine/internal/observability"
)

// Hub maintains active websocket clients: per-conversation room channels
// and a single conversation-list channel.
type Hub struct {
	roomClients  map[string]map[*websocket.Conn]bool
	roomConnInfo map[string]map[*websocket.Conn]ConnInfo
	listClients  map[*websocket.Conn]bool
	listConnInfo map[*websocket.Conn]ConnInfo
	mu           sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		roomClients:  make(map[string]map[*websocket.Conn]bool),
		roomConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
		listClients:  make(map[*websocket.Conn]bool),
		listConnInfo: make(map[*websocket.Conn]ConnInfo),
	}
}

// AddRoomClient registers a websocket connection to a conversation room.
func (h *Hub) AddRoomClient(conversationID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.roomClients[conversationID]; !ok {
		h.roomClients[conversationID] = make(map[*websocket.Conn]bool)
	}
	h.roomClients[conversationID][conn] = true
	if _, ok := h.roomConnInfo[conversationID]; !ok {
		h.roomConnInfo[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.roomConnInfo[conversationID][conn] = info
}

// RemoveRoomClient removes a room websocket connection.
func (h *Hub) RemoveRoomClient(conversationID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.roomClients[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.roomClients, conversationID)
		}
	}
	if infos, ok := h.roomConnInfo[conversationID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.roomConnInfo, conversationID)
		}
	}
}

// AddListClient registers a websocket connection to the conversation-list channel.
func (h *Hub) AddListClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listClients[conn] = true
	h.listConnInfo[conn] = info
}

// RemoveListClient removes a conversation-list websocket connection.
func (h *Hub) RemoveListClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listClients, conn)
	delete(h.listConnInfo, conn)
}

// BroadcastRoomMessage sends a new message to all clients in its room.
func (h *Hub) BroadcastRoomMessage(conversationID string, msg models.Message) {
	h.broadcastRoom(conversationID, models.RoomEvent{Type: "message", Message: &msg})
}

// BroadcastStatusChange notifies room clients of a message status transition.
func (h *Hub) BroadcastStatusChange(conversationID, messageID string, status models.Status) {
	h.broadcastRoom(conversationID, models.RoomEvent{Type: "status", MessageID: messageID, Status: status})
}

// BroadcastRoomDeletion notifies room clients of a delete or recall.
func (h *Hub) BroadcastRoomDeletion(conversationID, messageID string) {
	h.broadcastRoom(conversationID, models.RoomEvent{Type: "delete", MessageID: messageID})
}

func (h *Hub) broadcastRoom(conversationID string, event models.RoomEvent) {
	h.mu.RLock()
	conns := h.roomClients[conversationID]
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveRoomClient(conversationID, conn)
			h.publishWSError("room", conversationID, conn, err)
		}
	}
}

// BroadcastConversationList sends the new list snapshot to all list clients.
func (h *Hub) BroadcastConversationList(conversations []models.Conversation) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.listClients))
	for conn := range h.listClients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.ListEvent{Type: "conversations", Conversations: conversations}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveListClient(conn)
			h.publishWSError("list", "", conn, err)
		}
	}
}

func (h *Hub) publishWSError(kind, conversationID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(kind, conversationID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":            kind,
			"conversation_id": conversationID,
			"event":           "ws_error",
			"conn_id":         info.ConnID,
			"duration_ms":     time.Since(info.ConnectedAt).Milliseconds(),
			"reason":          err.Error(),
		},
		"client": map[string]interface{}{
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func (h *Hub) getConnInfo(kind, conversationID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind == "room" {
		if infos, ok := h.roomConnInfo[conversationID]; ok {
			info, exists := infos[conn]
			return info, exists
		}
		return ConnInfo{}, false
	}
	info, exists := h.listConnInfo[conn]
	return info, exists
}

func wsRoutingKey(kind string) string {
	if kind == "list" {
		return "ws_events.list"
	}
	return "ws_events.rooms"
}
