package room

import "chat-engine/internal/models"

// Service exposes room operations keyed by conversation id, opening rooms
// on demand through the Manager.
type Service struct {
	manager *Manager
}

// NewService wraps a Manager.
func NewService(manager *Manager) *Service {
	return &Service{manager: manager}
}

// Messages opens the room and returns its display grouping.
func (s *Service) Messages(conversationID string) []Entry {
	return s.manager.Open(conversationID).GroupForDisplay()
}

// SendText sends a text message in the conversation's room.
func (s *Service) SendText(conversationID, text string) (models.Message, error) {
	return s.manager.Open(conversationID).SendText(text)
}

// SendAttachments sends an attachment message in the conversation's room.
func (s *Service) SendAttachments(conversationID string, attachments []models.Attachment) (models.Message, error) {
	return s.manager.Open(conversationID).SendAttachments(attachments)
}

// Retry re-attempts delivery of a failed message.
func (s *Service) Retry(conversationID, messageID string) error {
	return s.manager.Open(conversationID).Retry(messageID)
}

// DeleteMessage removes a message from the conversation's room.
func (s *Service) DeleteMessage(conversationID, messageID string) error {
	return s.manager.Open(conversationID).DeleteMessage(messageID)
}

// RecallMessage recalls a message in the conversation's room.
func (s *Service) RecallMessage(conversationID, messageID string) error {
	return s.manager.Open(conversationID).RecallMessage(messageID)
}

// Close discards the conversation's live room.
func (s *Service) Close(conversationID string) {
	s.manager.Close(conversationID)
}
