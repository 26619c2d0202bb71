package room

import (
	"sync"
	"time"

	"chat-engine/internal/lifecycle"
	"chat-engine/internal/models"
)

// Source supplies the known messages for a conversation when its room is
// first opened.
type Source func(conversationID string) []models.Message

// Manager opens and closes room engines, one live engine per conversation.
type Manager struct {
	source     Source
	acker      lifecycle.Acknowledger
	ackTimeout time.Duration
	listener   Listener
	notifier   Notifier
	archiver   Archiver

	mu    sync.Mutex
	rooms map[string]*Engine
}

// NewManager builds a Manager.
func NewManager(source Source, acker lifecycle.Acknowledger, ackTimeout time.Duration, listener Listener, notifier Notifier, archiver Archiver) *Manager {
	return &Manager{
		source:     source,
		acker:      acker,
		ackTimeout: ackTimeout,
		listener:   listener,
		notifier:   notifier,
		archiver:   archiver,
		rooms:      make(map[string]*Engine),
	}
}

// Open returns the live room engine for a conversation, creating it from
// the source on first open.
func (m *Manager) Open(conversationID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.rooms[conversationID]; ok {
		return e
	}
	var initial []models.Message
	if m.source != nil {
		initial = m.source(conversationID)
	}
	e := NewEngine(conversationID, initial, m.acker, m.ackTimeout, m.listener, m.notifier, m.archiver)
	m.rooms[conversationID] = e
	return e
}

// Get returns the live room engine without creating one.
func (m *Manager) Get(conversationID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[conversationID]
	return e, ok
}

// Close discards the live room engine for a conversation. Its message
// collection is rebuilt from the source on the next Open.
func (m *Manager) Close(conversationID string) {
	m.mu.Lock()
	delete(m.rooms, conversationID)
	m.mu.Unlock()
}
