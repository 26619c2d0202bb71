// Package conversations owns the conversation collection: ordering,
// filtering, pin/delete/unread mutations and the lastMessage cache.
package conversations

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chat-engine/internal/models"
)

// Engine holds conversations in insertion order; List projects the exposed
// order on every call and never mutates stored order.
type Engine struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.Conversation

	clock    func() time.Time
	onChange func()
}

// NewEngine builds an Engine seeded with the given conversations.
func NewEngine(seed []models.Conversation) *Engine {
	e := &Engine{
		byID:  make(map[string]*models.Conversation, len(seed)),
		clock: time.Now,
	}
	for _, conv := range seed {
		if _, ok := e.byID[conv.ID]; ok {
			continue
		}
		c := conv
		e.order = append(e.order, c.ID)
		e.byID[c.ID] = &c
	}
	return e
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// SetOnChange registers a callback invoked after every mutation, outside
// the engine lock.
func (e *Engine) SetOnChange(fn func()) {
	e.onChange = fn
}

// List returns a fresh snapshot filtered by query: case-insensitive
// substring match against the nickname or the last message's text. Pinned
// conversations come first, each group descending by UpdatedAt; ties keep
// insertion order.
func (e *Engine) List(query string) []models.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Conversation, 0, len(e.order))
	for _, id := range e.order {
		conv := e.byID[id]
		if q != "" && !matches(conv, q) {
			continue
		}
		out = append(out, *conv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func matches(conv *models.Conversation, q string) bool {
	if strings.Contains(strings.ToLower(conv.Nickname), q) {
		return true
	}
	return conv.LastMessage != nil && strings.Contains(strings.ToLower(conv.LastMessage.Text), q)
}

// Get returns a snapshot of one conversation.
func (e *Engine) Get(id string) (models.Conversation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	conv, ok := e.byID[id]
	if !ok {
		return models.Conversation{}, false
	}
	return *conv, true
}

// Has reports whether a conversation exists.
func (e *Engine) Has(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.byID[id]
	return ok
}

// TogglePin flips the pinned flag and refreshes UpdatedAt. An absent id is
// a silent no-op.
func (e *Engine) TogglePin(id string) {
	e.mu.Lock()
	conv, ok := e.byID[id]
	if ok {
		conv.Pinned = !conv.Pinned
		conv.UpdatedAt = e.clock()
	}
	e.mu.Unlock()
	if ok {
		e.notify()
	}
}

// Delete removes a conversation. Idempotent: deleting an absent id is a
// no-op.
func (e *Engine) Delete(id string) {
	e.mu.Lock()
	_, ok := e.byID[id]
	if ok {
		delete(e.byID, id)
		for i, existing := range e.order {
			if existing == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()
	if ok {
		e.notify()
	}
}

// MarkRead resets the unread counter, invoked when a room is opened.
func (e *Engine) MarkRead(id string) {
	e.mu.Lock()
	conv, ok := e.byID[id]
	changed := ok && conv.UnreadCount != 0
	if changed {
		conv.UnreadCount = 0
	}
	e.mu.Unlock()
	if changed {
		e.notify()
	}
}

// OnMessageActivity keeps the lastMessage cache coherent. The room engine
// calls it for every message creation and status change; the cache is
// replaced when the message updates the cached entry or is at least as new,
// and the unread counter grows for unseen incoming messages.
func (e *Engine) OnMessageActivity(msg models.Message) {
	e.mu.Lock()
	conv, ok := e.byID[msg.ConversationID]
	if ok {
		last := conv.LastMessage
		if last == nil || last.ID == msg.ID || !msg.CreatedAt.Before(last.CreatedAt) {
			if msg.Incoming() && !msg.Read && (last == nil || last.ID != msg.ID) {
				conv.UnreadCount++
			}
			m := msg
			conv.LastMessage = &m
			if msg.CreatedAt.After(conv.UpdatedAt) {
				conv.UpdatedAt = msg.CreatedAt
			}
		}
	}
	e.mu.Unlock()
	if ok {
		e.notify()
	}
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}
