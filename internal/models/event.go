package models

// RoomEvent is broadcast through the room websocket channel.
type RoomEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	Status    Status   `json:"status,omitempty"`
}

// ListEvent is broadcast through the conversation-list websocket channel.
type ListEvent struct {
	Type          string         `json:"type"`
	Conversations []Conversation `json:"conversations,omitempty"`
}
