package lifecycle

import (
	"context"
	"sync"
	"time"

	"chat-engine/internal/models"
)

// Kind distinguishes the first delivery attempt from a retry.
type Kind string

const (
	KindSend  Kind = "send"
	KindRetry Kind = "retry"
)

// Acknowledger resolves the delivery outcome of an in-flight message. It
// blocks until the outcome is known or ctx is done.
type Acknowledger interface {
	Acknowledge(ctx context.Context, msg models.Message, kind Kind) models.Status
}

// DelayAcknowledger simulates delivery: it waits a fixed delay and reports
// success. Cancellation or deadline expiry reports failure.
type DelayAcknowledger struct {
	SendDelay  time.Duration
	RetryDelay time.Duration
}

func (a DelayAcknowledger) Acknowledge(ctx context.Context, _ models.Message, kind Kind) models.Status {
	delay := a.SendDelay
	if kind == KindRetry {
		delay = a.RetryDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return models.StatusSent
	case <-ctx.Done():
		return models.StatusFailed
	}
}

// Dispatcher schedules deferred acknowledgments, one in flight per message
// id. A dispatched acknowledgment that outlives Cancel for its id is
// suppressed: its outcome is never applied.
type Dispatcher struct {
	acker   Acknowledger
	timeout time.Duration
	apply   func(messageID string, status models.Status)

	mu      sync.Mutex
	pending map[string]*pendingAck
}

type pendingAck struct {
	cancel context.CancelFunc
}

// NewDispatcher builds a Dispatcher. apply is invoked off the caller's
// goroutine once an outcome is known; timeout bounds how long a message may
// stay in flight before it is marked failed.
func NewDispatcher(acker Acknowledger, timeout time.Duration, apply func(messageID string, status models.Status)) *Dispatcher {
	return &Dispatcher{
		acker:   acker,
		timeout: timeout,
		apply:   apply,
		pending: make(map[string]*pendingAck),
	}
}

// Dispatch starts the deferred acknowledgment for msg. The caller returns
// immediately; the outcome arrives later through apply.
func (d *Dispatcher) Dispatch(msg models.Message, kind Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	entry := &pendingAck{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.pending[msg.ID]; ok {
		prev.cancel()
	}
	d.pending[msg.ID] = entry
	d.mu.Unlock()

	go func() {
		defer cancel()
		status := d.acker.Acknowledge(ctx, msg, kind)

		d.mu.Lock()
		live := d.pending[msg.ID] == entry
		if live {
			delete(d.pending, msg.ID)
		}
		d.mu.Unlock()

		// Cancelled while pending: the message was deleted or recalled,
		// the outcome must not resurrect it.
		if !live || ctx.Err() == context.Canceled {
			return
		}
		d.apply(msg.ID, status)
	}()
}

// Cancel suppresses the pending acknowledgment for a message id, if any.
func (d *Dispatcher) Cancel(messageID string) {
	d.mu.Lock()
	entry, ok := d.pending[messageID]
	if ok {
		delete(d.pending, messageID)
	}
	d.mu.Unlock()
	if ok {
		entry.cancel()
	}
}
