package models

import "time"

// Status is the delivery state of a message.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// LocalActorID denotes the local user in SenderID fields.
const LocalActorID = "me"

// AttachmentType discriminates attachment payloads.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVoice    AttachmentType = "voice"
	AttachmentFile     AttachmentType = "file"
	AttachmentLocation AttachmentType = "location"
)

// Attachment is an immutable media payload owned by a single message.
// Image, voice and file attachments carry a content URI; location
// attachments carry coordinates.
type Attachment struct {
	ID         string         `json:"id"`
	Type       AttachmentType `json:"type"`
	URI        string         `json:"uri,omitempty"`
	Name       string         `json:"name,omitempty"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Latitude   float64        `json:"latitude,omitempty"`
	Longitude  float64        `json:"longitude,omitempty"`
}

// Message is a single unit of content within a conversation. At least one
// of Text and Attachments is always non-empty.
type Message struct {
	ID             string       `db:"id" json:"id"`
	ConversationID string       `db:"conversation_id" json:"conversation_id"`
	SenderID       string       `db:"sender_id" json:"sender_id"`
	Text           string       `db:"text" json:"text,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	Read           bool         `db:"read" json:"read"`
	Status         Status       `db:"status" json:"status"`
	// RecallableUntil bounds the recall window when set; zero means the
	// message recalls without a deadline.
	RecallableUntil time.Time `db:"recallable_until" json:"recallable_until,omitempty"`
}

// Incoming reports whether the message was sent by a remote actor.
func (m Message) Incoming() bool {
	return m.SenderID != LocalActorID
}

// Empty reports whether the message carries no content.
func (m Message) Empty() bool {
	return m.Text == "" && len(m.Attachments) == 0
}
