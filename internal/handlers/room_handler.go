package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-engine/internal/lifecycle"
	"chat-engine/internal/models"
	"chat-engine/internal/observability"
	"chat-engine/internal/room"
	"chat-engine/internal/telemetry"
)

// RoomService is the slice of the room layer the handlers need.
type RoomService interface {
	Messages(conversationID string) []room.Entry
	SendText(conversationID, text string) (models.Message, error)
	SendAttachments(conversationID string, attachments []models.Attachment) (models.Message, error)
	Retry(conversationID, messageID string) error
	DeleteMessage(conversationID, messageID string) error
	RecallMessage(conversationID, messageID string) error
	Close(conversationID string)
}

// RoomHandler manages per-conversation message endpoints.
type RoomHandler struct {
	rooms         RoomService
	conversations ConversationService
	audit         *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler. audit may be nil.
func NewRoomHandler(rooms RoomService, conversations ConversationService, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, conversations: conversations, audit: audit}
}

type sendMessageRequest struct {
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

// GetMessages returns the conversation's messages grouped for display and
// clears its unread count, matching the client opening the room.
func (h *RoomHandler) GetMessages(c *gin.Context) {
	id := c.Param("conversation_id")
	if _, ok := h.conversations.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	h.conversations.MarkRead(id)
	c.JSON(http.StatusOK, gin.H{"messages": h.rooms.Messages(id)})
}

// PostMessage sends a text or attachment message. The response carries the
// message in the sending state; the outcome arrives over the room socket.
func (h *RoomHandler) PostMessage(c *gin.Context) {
	id := c.Param("conversation_id")
	if _, ok := h.conversations.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text != "" && len(req.Attachments) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and attachments are mutually exclusive"})
		return
	}

	var (
		msg  models.Message
		err  error
		kind string
	)
	if len(req.Attachments) > 0 {
		kind = "attachment"
		msg, err = h.rooms.SendAttachments(id, req.Attachments)
	} else {
		kind = "text"
		msg, err = h.rooms.SendText(id, req.Text)
	}
	if err != nil {
		respondRoomError(c, err)
		return
	}

	observability.IncMessageSent(kind)
	h.emitAudit(c, telemetry.AuditPayload{Intent: "send_message", ConversationID: id, MessageID: msg.ID, Detail: kind})
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// RetryMessage re-attempts delivery of a failed message.
func (h *RoomHandler) RetryMessage(c *gin.Context) {
	id := c.Param("conversation_id")
	messageID := c.Param("message_id")
	if err := h.rooms.Retry(id, messageID); err != nil {
		respondRoomError(c, err)
		return
	}

	observability.IncMessageSent("retry")
	h.emitAudit(c, telemetry.AuditPayload{Intent: "retry_message", ConversationID: id, MessageID: messageID})
	c.Status(http.StatusNoContent)
}

// DeleteMessage removes a message locally.
func (h *RoomHandler) DeleteMessage(c *gin.Context) {
	id := c.Param("conversation_id")
	messageID := c.Param("message_id")
	if err := h.rooms.DeleteMessage(id, messageID); err != nil {
		respondRoomError(c, err)
		return
	}

	observability.IncMessageRemoved("delete")
	h.emitAudit(c, telemetry.AuditPayload{Intent: "delete_message", ConversationID: id, MessageID: messageID})
	c.Status(http.StatusNoContent)
}

// RecallMessage withdraws a message for every participant, subject to its
// recall deadline.
func (h *RoomHandler) RecallMessage(c *gin.Context) {
	id := c.Param("conversation_id")
	messageID := c.Param("message_id")
	if err := h.rooms.RecallMessage(id, messageID); err != nil {
		respondRoomError(c, err)
		return
	}

	observability.IncMessageRemoved("recall")
	h.emitAudit(c, telemetry.AuditPayload{Intent: "recall_message", ConversationID: id, MessageID: messageID})
	c.Status(http.StatusNoContent)
}

// CloseRoom discards the conversation's live room state.
func (h *RoomHandler) CloseRoom(c *gin.Context) {
	id := c.Param("conversation_id")
	h.rooms.Close(id)
	c.Status(http.StatusNoContent)
}

func respondRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrEmptyMessage), errors.Is(err, models.ErrInvalidAttachment):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, room.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrRecallExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *RoomHandler) emitAudit(c *gin.Context, payload telemetry.AuditPayload) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), requestIDFromContext(c), payload)
}
