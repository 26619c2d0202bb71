package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-engine/internal/conversations"
	"chat-engine/internal/lifecycle"
	"chat-engine/internal/models"
)

type instantAcker struct {
	outcome models.Status
}

func (a instantAcker) Acknowledge(ctx context.Context, _ models.Message, _ lifecycle.Kind) models.Status {
	if ctx.Err() != nil {
		return models.StatusFailed
	}
	return a.outcome
}

type blockingAcker struct {
	release chan struct{}
}

func (a *blockingAcker) Acknowledge(ctx context.Context, _ models.Message, _ lifecycle.Kind) models.Status {
	select {
	case <-a.release:
		return models.StatusSent
	case <-ctx.Done():
		return models.StatusFailed
	}
}

// recordingListener collects message activity and signals on every event.
type recordingListener struct {
	mu     sync.Mutex
	events []models.Message
	signal chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{signal: make(chan struct{}, 32)}
}

func (l *recordingListener) OnMessageActivity(msg models.Message) {
	l.mu.Lock()
	l.events = append(l.events, msg)
	l.mu.Unlock()
	l.signal <- struct{}{}
}

func (l *recordingListener) waitFor(t *testing.T, status models.Status) models.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case <-l.signal:
			l.mu.Lock()
			for _, ev := range l.events {
				if ev.Status == status {
					l.mu.Unlock()
					return ev
				}
			}
			l.mu.Unlock()
		case <-deadline:
			t.Fatalf("no %s activity observed", status)
		}
	}
}

func newTestEngine(acker lifecycle.Acknowledger, listener Listener, initial ...models.Message) *Engine {
	return NewEngine("c1", initial, acker, time.Second, listener, nil, nil)
}

func TestSendTextEndToEnd(t *testing.T) {
	convs := conversations.NewEngine([]models.Conversation{{ID: "c1", Nickname: "Alex Chen"}})
	e := NewEngine("c1", nil, instantAcker{outcome: models.StatusSent}, time.Second, convs, nil, nil)

	msg, err := e.SendText("hi :smile:")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSending, msg.Status)
	assert.Equal(t, "hi 😄", msg.Text)

	require.Eventually(t, func() bool {
		conv, ok := convs.Get("c1")
		return ok && conv.LastMessage != nil && conv.LastMessage.Status == models.StatusSent
	}, time.Second, 5*time.Millisecond)

	conv, _ := convs.Get("c1")
	assert.Equal(t, "hi 😄", conv.LastMessage.Text)
	assert.Equal(t, msg.ID, conv.LastMessage.ID)
}

func TestSendTextEmptyAfterTrim(t *testing.T) {
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil)

	_, err := e.SendText("   ")
	assert.ErrorIs(t, err, lifecycle.ErrEmptyMessage)
	assert.Empty(t, e.LoadInitial())
}

func TestSendAttachments(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, listener)

	att := models.Attachment{ID: "a1", Type: models.AttachmentLocation, Latitude: 48.85, Longitude: 2.35}
	msg, err := e.SendAttachments([]models.Attachment{att})
	require.NoError(t, err)
	assert.Empty(t, msg.Text)
	require.Len(t, msg.Attachments, 1)

	sent := listener.waitFor(t, models.StatusSent)
	assert.Equal(t, msg.ID, sent.ID)
}

func TestSendAttachmentsEmpty(t *testing.T) {
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil)

	_, err := e.SendAttachments(nil)
	assert.ErrorIs(t, err, lifecycle.ErrEmptyMessage)
}

func TestSendAttachmentsInvalidPayload(t *testing.T) {
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil)

	_, err := e.SendAttachments([]models.Attachment{{ID: "a1", Type: models.AttachmentImage}})
	assert.ErrorIs(t, err, models.ErrInvalidAttachment)
	assert.Empty(t, e.LoadInitial())
}

func TestLoadInitialNewestFirst(t *testing.T) {
	base := time.Date(2024, 5, 14, 12, 0, 0, 0, time.Local)
	older := models.Message{ID: "m1", ConversationID: "c1", SenderID: "user_2", Text: "first", CreatedAt: base, Status: models.StatusSent}
	newer := models.Message{ID: "m2", ConversationID: "c1", SenderID: "user_2", Text: "second", CreatedAt: base.Add(time.Minute), Status: models.StatusSent}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, older, newer)

	msgs := e.LoadInitial()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].ID)
	assert.Equal(t, "m1", msgs[1].ID)
}

func TestRetryRequiresFailedState(t *testing.T) {
	sent := models.Message{ID: "m1", ConversationID: "c1", SenderID: models.LocalActorID, Text: "done", CreatedAt: time.Now(), Status: models.StatusSent}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, sent)

	err := e.Retry("m1")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	msgs := e.LoadInitial()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
}

func TestRetryUnknownMessage(t *testing.T) {
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil)
	assert.ErrorIs(t, e.Retry("missing"), ErrMessageNotFound)
}

func TestRetryFailedMessage(t *testing.T) {
	listener := newRecordingListener()
	failed := models.Message{ID: "m1", ConversationID: "c1", SenderID: models.LocalActorID, Text: "oops", CreatedAt: time.Now(), Status: models.StatusFailed}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, listener, failed)

	require.NoError(t, e.Retry("m1"))

	sent := listener.waitFor(t, models.StatusSent)
	assert.Equal(t, "m1", sent.ID)

	msgs := e.LoadInitial()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
}

func TestDeleteMessage(t *testing.T) {
	msg := models.Message{ID: "m1", ConversationID: "c1", SenderID: "user_2", Text: "hey", CreatedAt: time.Now(), Status: models.StatusSent}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, msg)

	require.NoError(t, e.DeleteMessage("m1"))
	assert.Empty(t, e.LoadInitial())

	assert.ErrorIs(t, e.DeleteMessage("m1"), ErrMessageNotFound)
}

func TestDeleteSuppressesPendingAck(t *testing.T) {
	listener := newRecordingListener()
	blocked := &blockingAcker{release: make(chan struct{})}
	e := newTestEngine(blocked, listener)

	msg, err := e.SendText("going away")
	require.NoError(t, err)

	require.NoError(t, e.DeleteMessage(msg.ID))
	close(blocked.release)

	// The pending acknowledgment must not resurrect the message or emit a
	// sent transition.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, e.LoadInitial())
	listener.mu.Lock()
	for _, ev := range listener.events {
		assert.NotEqual(t, models.StatusSent, ev.Status)
	}
	listener.mu.Unlock()
}

func TestRecallWithinWindow(t *testing.T) {
	now := time.Now()
	msg := models.Message{ID: "m1", ConversationID: "c1", SenderID: models.LocalActorID, Text: "typo", CreatedAt: now, Status: models.StatusSent, RecallableUntil: now.Add(time.Minute)}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, msg)
	e.SetClock(func() time.Time { return now })

	require.NoError(t, e.RecallMessage("m1"))
	assert.Empty(t, e.LoadInitial())
}

func TestRecallExpired(t *testing.T) {
	now := time.Now()
	msg := models.Message{ID: "m1", ConversationID: "c1", SenderID: models.LocalActorID, Text: "too late", CreatedAt: now.Add(-time.Hour), Status: models.StatusSent, RecallableUntil: now.Add(-30 * time.Minute)}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, msg)
	e.SetClock(func() time.Time { return now })

	err := e.RecallMessage("m1")
	assert.ErrorIs(t, err, lifecycle.ErrRecallExpired)
	assert.Len(t, e.LoadInitial(), 1)
}

func TestRecallWithoutDeadline(t *testing.T) {
	msg := models.Message{ID: "m1", ConversationID: "c1", SenderID: models.LocalActorID, Text: "old but recallable", CreatedAt: time.Now().Add(-48 * time.Hour), Status: models.StatusSent}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, msg)

	require.NoError(t, e.RecallMessage("m1"))
	assert.Empty(t, e.LoadInitial())
}

func TestGroupForDisplay(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)

	msgs := []models.Message{
		{ID: "m1", ConversationID: "c1", SenderID: "user_2", Text: "a", CreatedAt: yesterday, Status: models.StatusSent},
		{ID: "m2", ConversationID: "c1", SenderID: "user_2", Text: "b", CreatedAt: yesterday.Add(5 * time.Minute), Status: models.StatusSent},
		{ID: "m3", ConversationID: "c1", SenderID: "user_2", Text: "c", CreatedAt: yesterday.Add(20 * time.Minute), Status: models.StatusSent},
		{ID: "m4", ConversationID: "c1", SenderID: "me", Text: "d", CreatedAt: now, Status: models.StatusSent},
	}
	e := newTestEngine(instantAcker{outcome: models.StatusSent}, nil, msgs...)
	e.SetClock(func() time.Time { return now })

	entries := e.GroupForDisplay()
	require.Len(t, entries, 4)

	assert.True(t, entries[0].ShowDivider) // first message
	assert.Equal(t, "Yesterday", entries[0].DividerText)

	assert.False(t, entries[1].ShowDivider) // 5min gap, same day

	assert.True(t, entries[2].ShowDivider) // 15min gap
	assert.Equal(t, "Yesterday", entries[2].DividerText)

	assert.True(t, entries[3].ShowDivider) // day change
	assert.Equal(t, "Today", entries[3].DividerText)
}

func TestManagerOpenCloseReopen(t *testing.T) {
	source := func(conversationID string) []models.Message {
		return []models.Message{{ID: "m1", ConversationID: conversationID, SenderID: "user_2", Text: "seeded", CreatedAt: time.Now(), Status: models.StatusSent}}
	}
	m := NewManager(source, instantAcker{outcome: models.StatusSent}, time.Second, nil, nil, nil)

	e := m.Open("c1")
	require.Len(t, e.LoadInitial(), 1)

	again := m.Open("c1")
	assert.Same(t, e, again)

	require.NoError(t, e.DeleteMessage("m1"))
	m.Close("c1")

	// A reopened room rebuilds from the source.
	reopened := m.Open("c1")
	assert.NotSame(t, e, reopened)
	assert.Len(t, reopened.LoadInitial(), 1)
}
