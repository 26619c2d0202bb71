// Package room owns the message collection of one conversation: sending,
// retrying, deleting and recalling messages, and time-segmented grouping
// for display.
package room

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-engine/internal/lifecycle"
	"chat-engine/internal/models"
	"chat-engine/internal/observability"
	"chat-engine/internal/timegroup"
)

var ErrMessageNotFound = errors.New("message not found")

// Listener receives every message creation and status change so the
// conversation list can refresh its lastMessage cache.
type Listener interface {
	OnMessageActivity(msg models.Message)
}

// Notifier pushes room changes to the UI boundary.
type Notifier interface {
	BroadcastRoomMessage(conversationID string, msg models.Message)
	BroadcastStatusChange(conversationID, messageID string, status models.Status)
	BroadcastRoomDeletion(conversationID, messageID string)
}

// Archiver persists room mutations write-behind; failures are logged, never
// surfaced to the sender.
type Archiver interface {
	SaveMessage(ctx context.Context, msg models.Message) error
	UpdateMessageStatus(ctx context.Context, messageID string, status models.Status) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// Entry pairs a message with its divider decision for display.
type Entry struct {
	Message     models.Message `json:"message"`
	ShowDivider bool           `json:"show_divider"`
	DividerText string         `json:"divider_text,omitempty"`
}

// Engine is bound to a single conversation. Messages are stored in
// CreatedAt-ascending canonical order.
type Engine struct {
	conversationID string

	mu       sync.Mutex
	messages []models.Message

	clock      func() time.Time
	dispatcher *lifecycle.Dispatcher
	listener   Listener
	notifier   Notifier
	archiver   Archiver
}

// NewEngine builds a room engine over the conversation's known messages.
// listener, notifier and archiver may be nil.
func NewEngine(conversationID string, initial []models.Message, acker lifecycle.Acknowledger, ackTimeout time.Duration, listener Listener, notifier Notifier, archiver Archiver) *Engine {
	msgs := make([]models.Message, len(initial))
	copy(msgs, initial)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	e := &Engine{
		conversationID: conversationID,
		messages:       msgs,
		clock:          time.Now,
		listener:       listener,
		notifier:       notifier,
		archiver:       archiver,
	}
	e.dispatcher = lifecycle.NewDispatcher(acker, ackTimeout, e.applyAck)
	return e
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
}

// ConversationID returns the bound conversation id.
func (e *Engine) ConversationID() string {
	return e.conversationID
}

// LoadInitial returns the known messages newest-first for display.
func (e *Engine) LoadInitial() []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Message, len(e.messages))
	for i, m := range e.messages {
		out[len(e.messages)-1-i] = m
	}
	return out
}

// SendText trims and sends a text message. The message returns immediately
// in the sending state; the sent/failed outcome arrives later through the
// change notifications.
func (e *Engine) SendText(text string) (models.Message, error) {
	msg, err := lifecycle.NewOutgoing(e.conversationID, models.LocalActorID, strings.TrimSpace(text), nil, e.clock())
	if err != nil {
		return models.Message{}, err
	}
	e.append(msg)
	e.dispatcher.Dispatch(msg, lifecycle.KindSend)
	return msg, nil
}

// SendAttachments sends an attachment-only message. The sequence must be
// non-empty and every payload valid for its type.
func (e *Engine) SendAttachments(attachments []models.Attachment) (models.Message, error) {
	if len(attachments) == 0 {
		return models.Message{}, lifecycle.ErrEmptyMessage
	}
	for _, att := range attachments {
		if err := att.Validate(); err != nil {
			return models.Message{}, err
		}
	}
	msg, err := lifecycle.NewOutgoing(e.conversationID, models.LocalActorID, "", attachments, e.clock())
	if err != nil {
		return models.Message{}, err
	}
	e.append(msg)
	e.dispatcher.Dispatch(msg, lifecycle.KindSend)
	return msg, nil
}

func (e *Engine) append(msg models.Message) {
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()

	if e.listener != nil {
		e.listener.OnMessageActivity(msg)
	}
	if e.notifier != nil {
		e.notifier.BroadcastRoomMessage(e.conversationID, msg)
	}
	e.archiveSave(msg)
}

// Retry re-enters the sending state for a failed message and re-attempts
// acknowledgment without allocating a new identity.
func (e *Engine) Retry(messageID string) error {
	e.mu.Lock()
	i := e.indexOf(messageID)
	if i < 0 {
		e.mu.Unlock()
		return ErrMessageNotFound
	}
	updated, err := lifecycle.Transition(e.messages[i], models.StatusSending)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.messages[i] = updated
	e.mu.Unlock()

	e.afterTransition(updated)
	e.dispatcher.Dispatch(updated, lifecycle.KindRetry)
	return nil
}

// DeleteMessage removes a message from the room. A pending acknowledgment
// for it is suppressed.
func (e *Engine) DeleteMessage(messageID string) error {
	return e.remove(messageID, false)
}

// RecallMessage removes a message, honoring its recall deadline when set.
func (e *Engine) RecallMessage(messageID string) error {
	return e.remove(messageID, true)
}

func (e *Engine) remove(messageID string, checkWindow bool) error {
	e.mu.Lock()
	i := e.indexOf(messageID)
	if i < 0 {
		e.mu.Unlock()
		return ErrMessageNotFound
	}
	if checkWindow {
		if err := lifecycle.CheckRecallable(e.messages[i], e.clock()); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	e.messages = append(e.messages[:i], e.messages[i+1:]...)
	e.mu.Unlock()

	e.dispatcher.Cancel(messageID)
	if e.notifier != nil {
		e.notifier.BroadcastRoomDeletion(e.conversationID, messageID)
	}
	if e.archiver != nil {
		if err := e.archiver.DeleteMessage(context.Background(), messageID); err != nil {
			log.Printf("archive delete failed message_id=%s: %v", messageID, err)
		}
	}
	return nil
}

// GroupForDisplay returns messages oldest-first, each annotated with
// whether a divider precedes it and the divider label relative to now.
func (e *Engine) GroupForDisplay() []Entry {
	now := e.clock()

	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]Entry, 0, len(e.messages))
	for i, msg := range e.messages {
		var prev time.Time
		if i > 0 {
			prev = e.messages[i-1].CreatedAt
		}
		entry := Entry{Message: msg}
		if timegroup.ShowDivider(i > 0, prev, msg.CreatedAt) {
			entry.ShowDivider = true
			entry.DividerText = timegroup.Label(msg.CreatedAt, now)
		}
		entries = append(entries, entry)
	}
	return entries
}

// applyAck is the dispatcher callback. Presence and state are re-checked
// under the lock; a message deleted while its acknowledgment was pending is
// left alone.
func (e *Engine) applyAck(messageID string, status models.Status) {
	e.mu.Lock()
	i := e.indexOf(messageID)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	updated, err := lifecycle.Transition(e.messages[i], status)
	if err != nil {
		e.mu.Unlock()
		return
	}
	e.messages[i] = updated
	e.mu.Unlock()

	e.afterTransition(updated)
	if e.archiver != nil {
		if err := e.archiver.UpdateMessageStatus(context.Background(), messageID, status); err != nil {
			log.Printf("archive status update failed message_id=%s: %v", messageID, err)
		}
	}
}

func (e *Engine) afterTransition(msg models.Message) {
	observability.IncMessageTransition(string(msg.Status))
	if e.listener != nil {
		e.listener.OnMessageActivity(msg)
	}
	if e.notifier != nil {
		e.notifier.BroadcastStatusChange(e.conversationID, msg.ID, msg.Status)
	}
}

func (e *Engine) archiveSave(msg models.Message) {
	if e.archiver == nil {
		return
	}
	if err := e.archiver.SaveMessage(context.Background(), msg); err != nil {
		log.Printf("archive save failed message_id=%s: %v", msg.ID, err)
	}
}

// indexOf must be called with the lock held.
func (e *Engine) indexOf(messageID string) int {
	for i, m := range e.messages {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}
