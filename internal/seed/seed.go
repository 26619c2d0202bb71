// Package seed provides the static snapshot the engines boot from when no
// archive is configured.
package seed

import (
	"time"

	"chat-engine/internal/models"
)

// Snapshot bundles the seeded state.
type Snapshot struct {
	Conversations []models.Conversation
	Messages      map[string][]models.Message
	Users         map[string]models.User
}

// Load builds the snapshot with timestamps relative to now.
func Load(now time.Time) Snapshot {
	minus := func(minutes int) time.Time { return now.Add(-time.Duration(minutes) * time.Minute) }

	messages := map[string][]models.Message{
		"c1": {
			{ID: "c1m1", ConversationID: "c1", SenderID: "user_2", Text: "Hey!", CreatedAt: minus(120), Read: true, Status: models.StatusSent},
			{ID: "c1m2", ConversationID: "c1", SenderID: models.LocalActorID, Text: "Hi Alex 👋", CreatedAt: minus(119), Read: true, Status: models.StatusSent},
			{ID: "c1m3", ConversationID: "c1", SenderID: "user_2", Text: "Lunch at 12? 😄", CreatedAt: minus(5), Status: models.StatusSent},
		},
		"c2": {
			{ID: "c2m1", ConversationID: "c2", SenderID: "user_3", Text: "Great job on the mockups! 👏", CreatedAt: minus(12), Read: true, Status: models.StatusSent},
		},
		"c3": {
			{ID: "c3m1", ConversationID: "c3", SenderID: "user_4", Text: "Call me when free", CreatedAt: minus(30), Status: models.StatusSent},
		},
		"c4": {
			{ID: "c4m1", ConversationID: "c4", SenderID: "user_5", Text: "See you later 👍", CreatedAt: minus(60), Read: true, Status: models.StatusSent},
		},
	}

	last := func(conversationID string) *models.Message {
		msgs := messages[conversationID]
		m := msgs[len(msgs)-1]
		return &m
	}

	conversations := []models.Conversation{
		{ID: "c1", Nickname: "Alex Chen", Pinned: true, UnreadCount: 2, LastMessage: last("c1"), UpdatedAt: minus(5)},
		{ID: "c2", Nickname: "Design Team", UnreadCount: 0, LastMessage: last("c2"), UpdatedAt: minus(12)},
		{ID: "c3", Nickname: "Mom", UnreadCount: 1, LastMessage: last("c3"), UpdatedAt: minus(30)},
		{ID: "c4", Nickname: "Jordan", UnreadCount: 0, LastMessage: last("c4"), UpdatedAt: minus(60)},
	}

	users := map[string]models.User{
		"me":     {ID: "me", Name: "Me", Email: "me@example.com", About: "Available and ready to chat!", Signature: "Available"},
		"user_2": {ID: "user_2", Name: "Alex Chen", Signature: "Work hard, play hard."},
		"user_3": {ID: "user_3", Name: "Design Team", Signature: "Make it delightful."},
		"user_4": {ID: "user_4", Name: "Mom", Signature: "Call me"},
		"user_5": {ID: "user_5", Name: "Jordan", Signature: "On the move"},
	}

	return Snapshot{Conversations: conversations, Messages: messages, Users: users}
}
