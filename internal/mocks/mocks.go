package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-engine/internal/models"
	"chat-engine/internal/repositories"
	"chat-engine/internal/room"
)

type ConversationServiceMock struct {
	mock.Mock
}

func (m *ConversationServiceMock) List(query string) []models.Conversation {
	args := m.Called(query)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list
}

func (m *ConversationServiceMock) Get(id string) (models.Conversation, bool) {
	args := m.Called(id)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Bool(1)
}

func (m *ConversationServiceMock) TogglePin(id string) {
	m.Called(id)
}

func (m *ConversationServiceMock) Delete(id string) {
	m.Called(id)
}

func (m *ConversationServiceMock) MarkRead(id string) {
	m.Called(id)
}

type RoomServiceMock struct {
	mock.Mock
}

func (m *RoomServiceMock) Messages(conversationID string) []room.Entry {
	args := m.Called(conversationID)
	var entries []room.Entry
	if val := args.Get(0); val != nil {
		entries = val.([]room.Entry)
	}
	return entries
}

func (m *RoomServiceMock) SendText(conversationID, text string) (models.Message, error) {
	args := m.Called(conversationID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *RoomServiceMock) SendAttachments(conversationID string, attachments []models.Attachment) (models.Message, error) {
	args := m.Called(conversationID, attachments)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *RoomServiceMock) Retry(conversationID, messageID string) error {
	args := m.Called(conversationID, messageID)
	return args.Error(0)
}

func (m *RoomServiceMock) DeleteMessage(conversationID, messageID string) error {
	args := m.Called(conversationID, messageID)
	return args.Error(0)
}

func (m *RoomServiceMock) RecallMessage(conversationID, messageID string) error {
	args := m.Called(conversationID, messageID)
	return args.Error(0)
}

func (m *RoomServiceMock) Close(conversationID string) {
	m.Called(conversationID)
}

type PreferenceStoreMock struct {
	mock.Mock
}

func (m *PreferenceStoreMock) DoNotDisturb(conversationID string) (bool, error) {
	args := m.Called(conversationID)
	return args.Bool(0), args.Error(1)
}

func (m *PreferenceStoreMock) SetDoNotDisturb(conversationID string, enabled bool) error {
	args := m.Called(conversationID, enabled)
	return args.Error(0)
}

type HistoryRepositoryMock struct {
	mock.Mock
}

func (m *HistoryRepositoryMock) LoadConversations(ctx context.Context) ([]models.Conversation, error) {
	args := m.Called(ctx)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *HistoryRepositoryMock) LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *HistoryRepositoryMock) SaveConversation(ctx context.Context, conv models.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *HistoryRepositoryMock) DeleteConversation(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

func (m *HistoryRepositoryMock) SaveMessage(ctx context.Context, msg models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *HistoryRepositoryMock) UpdateMessageStatus(ctx context.Context, messageID string, status models.Status) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

func (m *HistoryRepositoryMock) DeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

var _ repositories.HistoryRepository = (*HistoryRepositoryMock)(nil)
