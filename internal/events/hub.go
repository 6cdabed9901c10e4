package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ConfirmRequest asks the front end whether ModName should be overwritten.
type ConfirmRequest struct {
	ModName string `json:"mod_name" yaml:"mod_name"`
}

// HubOptions configures NewHub.
type HubOptions struct {
	// ConfirmTimeout bounds how long ConfirmOverwrite waits for an answer.
	// Zero waits until the context is done.
	ConfirmTimeout time.Duration

	// SubscriberBuffer is the channel capacity given to each subscriber.
	SubscriberBuffer int

	Logger *slog.Logger
}

// Hub fans events out to subscribers and routes overwrite confirmations.
// Safe for concurrent use.
type Hub struct {
	log     *slog.Logger
	timeout time.Duration
	buffer  int

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
	pending map[string]chan bool
	closed  bool

	requests chan ConfirmRequest
}

// NewHub creates an empty hub.
func NewHub(opts HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := opts.SubscriberBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		log:      logger,
		timeout:  opts.ConfirmTimeout,
		buffer:   buffer,
		subs:     make(map[int]chan Event),
		pending:  make(map[string]chan bool),
		requests: make(chan ConfirmRequest),
	}
}

// Subscribe registers a new event consumer. The returned cancel func
// unregisters it and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers e to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.log.Warn("dropping event for slow subscriber", "subscriber", id, "kind", e.Kind, "mod_id", e.ID)
		}
	}
}

// Requests yields overwrite questions for the front end. The channel is
// unbuffered: a question is only handed over while its asker still waits,
// so a receiver never sees one that already timed out.
func (h *Hub) Requests() <-chan ConfirmRequest {
	return h.requests
}

// ConfirmOverwrite emits a ConfirmRequest and waits for the matching Answer.
// Timeout and context cancellation count as declined. Only one question per
// mod name may be outstanding.
func (h *Hub) ConfirmOverwrite(ctx context.Context, modName string) (bool, error) {
	answer := make(chan bool, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false, nil
	}
	if _, busy := h.pending[modName]; busy {
		h.mu.Unlock()
		return false, fmt.Errorf("overwrite confirmation for %q already pending", modName)
	}
	h.pending[modName] = answer
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, modName)
		h.mu.Unlock()
	}()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	select {
	case h.requests <- ConfirmRequest{ModName: modName}:
	case <-ctx.Done():
		h.log.Info("overwrite confirmation not delivered, treating as declined", "name", modName, "error", ctx.Err())
		return false, nil
	}

	select {
	case overwrite := <-answer:
		return overwrite, nil
	case <-ctx.Done():
		h.log.Info("overwrite confirmation unanswered, treating as declined", "name", modName, "error", ctx.Err())
		return false, nil
	}
}

// Answer resolves the outstanding question for modName. It reports whether
// a question was waiting.
func (h *Hub) Answer(modName string, overwrite bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.pending[modName]
	if !ok {
		return false
	}
	delete(h.pending, modName)
	ch <- overwrite
	return true
}

// Close unregisters all subscribers. Later confirmations are declined.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
