package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-engine/internal/models"
	"chat-engine/internal/repositories"
	"chat-engine/internal/telemetry"
)

// ConversationService is the slice of the conversation list engine the
// handlers need.
type ConversationService interface {
	List(query string) []models.Conversation
	Get(id string) (models.Conversation, bool)
	TogglePin(id string)
	Delete(id string)
	MarkRead(id string)
}

// PreferenceStore holds per-conversation settings.
type PreferenceStore interface {
	DoNotDisturb(conversationID string) (bool, error)
	SetDoNotDisturb(conversationID string, enabled bool) error
}

// ConversationHandler manages conversation list endpoints.
type ConversationHandler struct {
	conversations ConversationService
	rooms         RoomService
	prefs         PreferenceStore
	history       repositories.HistoryRepository
	users         map[string]models.User
	audit         *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler. prefs, history and
// audit may be nil.
func NewConversationHandler(conversations ConversationService, rooms RoomService, prefs PreferenceStore, history repositories.HistoryRepository, users map[string]models.User, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		rooms:         rooms,
		prefs:         prefs,
		history:       history,
		users:         users,
		audit:         audit,
	}
}

// ListConversations returns the filtered, ordered conversation snapshot.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	query := c.Query("query")
	c.JSON(http.StatusOK, gin.H{"conversations": h.conversations.List(query)})
}

// TogglePin flips a conversation's pinned flag. An unknown id is a no-op,
// mirroring the engine's contract.
func (h *ConversationHandler) TogglePin(c *gin.Context) {
	id := c.Param("conversation_id")
	h.conversations.TogglePin(id)

	h.archiveConversation(c.Request.Context(), id)
	h.emitAudit(c, telemetry.AuditPayload{Intent: "toggle_pin", ConversationID: id})
	c.Status(http.StatusNoContent)
}

// DeleteConversation removes a conversation and discards its live room.
// Idempotent: deleting an absent id still succeeds.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id := c.Param("conversation_id")
	h.conversations.Delete(id)
	if h.rooms != nil {
		h.rooms.Close(id)
	}

	if h.history != nil {
		if err := h.history.DeleteConversation(c.Request.Context(), id); err != nil {
			log.Printf("archive conversation delete failed conversation_id=%s: %v", id, err)
		}
	}
	h.emitAudit(c, telemetry.AuditPayload{Intent: "delete_conversation", ConversationID: id})
	c.Status(http.StatusNoContent)
}

// GetSettings returns the conversation's do-not-disturb flag.
func (h *ConversationHandler) GetSettings(c *gin.Context) {
	id := c.Param("conversation_id")
	if _, ok := h.conversations.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	enabled, err := h.prefs.DoNotDisturb(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"do_not_disturb": enabled})
}

// UpdateSettings stores the conversation's do-not-disturb flag.
func (h *ConversationHandler) UpdateSettings(c *gin.Context) {
	id := c.Param("conversation_id")
	if _, ok := h.conversations.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	var req struct {
		DoNotDisturb *bool `json:"do_not_disturb" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.prefs.SetDoNotDisturb(id, *req.DoNotDisturb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store settings"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUser returns a directory entry.
func (h *ConversationHandler) GetUser(c *gin.Context) {
	id := c.Param("user_id")
	user, ok := h.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *ConversationHandler) archiveConversation(ctx context.Context, id string) {
	if h.history == nil {
		return
	}
	conv, ok := h.conversations.Get(id)
	if !ok {
		return
	}
	if err := h.history.SaveConversation(ctx, conv); err != nil {
		log.Printf("archive conversation save failed conversation_id=%s: %v", id, err)
	}
}

func (h *ConversationHandler) emitAudit(c *gin.Context, payload telemetry.AuditPayload) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), requestIDFromContext(c), payload)
}
