// Package lifecycle owns message construction and the send-state machine:
// sending -> sent on acknowledgment, sending -> failed on timeout, and
// failed -> sending on retry.
package lifecycle

import (
	"errors"
	"time"

	"github.com/pborman/uuid"

	"chat-engine/internal/emoji"
	"chat-engine/internal/models"
)

var (
	ErrEmptyMessage  = errors.New("message has no content")
	ErrInvalidState  = errors.New("message state does not allow this operation")
	ErrRecallExpired = errors.New("recall window has expired")
)

// NewOutgoing builds a locally originated message in the sending state.
// Text is normalized before storage. A message with neither text nor
// attachments is rejected with ErrEmptyMessage.
func NewOutgoing(conversationID, senderID, text string, attachments []models.Attachment, now time.Time) (models.Message, error) {
	msg := models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           emoji.Normalize(text),
		Attachments:    attachments,
		CreatedAt:      now,
		Read:           true,
		Status:         models.StatusSending,
	}
	if msg.Empty() {
		return models.Message{}, ErrEmptyMessage
	}
	return msg, nil
}

// Transition moves a message to the given status, validating the edge.
// Valid edges: sending->sent, sending->failed, failed->sending.
func Transition(m models.Message, to models.Status) (models.Message, error) {
	valid := false
	switch m.Status {
	case models.StatusSending:
		valid = to == models.StatusSent || to == models.StatusFailed
	case models.StatusFailed:
		valid = to == models.StatusSending
	}
	if !valid {
		return models.Message{}, ErrInvalidState
	}
	m.Status = to
	return m, nil
}

// CheckRecallable reports whether the message may still be recalled at the
// given instant. Messages without a recall deadline recall unconditionally.
func CheckRecallable(m models.Message, now time.Time) error {
	if !m.RecallableUntil.IsZero() && now.After(m.RecallableUntil) {
		return ErrRecallExpired
	}
	return nil
}
