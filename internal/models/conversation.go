package models

import "time"

// Conversation is a named thread of messages. LastMessage is a denormalized
// cache of the most recent message, kept coherent by the conversation list
// engine on every message event.
type Conversation struct {
	ID          string    `db:"id" json:"id"`
	Nickname    string    `db:"nickname" json:"nickname"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Pinned      bool      `db:"pinned" json:"pinned"`
	UnreadCount int       `db:"unread_count" json:"unread_count"`
	LastMessage *Message  `json:"last_message,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// User is a directory entry for a known actor.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Signature string `json:"signature,omitempty"`
	Email     string `json:"email,omitempty"`
	About     string `json:"about,omitempty"`
}
