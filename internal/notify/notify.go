// Package notify fans presentation events out to subscribers.
//
// It is transport-agnostic: the control service subscribes one channel per
// Watch stream, and tests subscribe directly. Publishing never blocks; a
// subscriber that falls behind loses events.
package notify

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"go.klb.dev/pinpaste/internal/message"
)

// sticky event types are replayed to new subscribers.
var sticky = map[message.EventType]bool{
	message.EventHistoryUpdated: true,
	message.EventStorageInfo:    true,
}

// Subscription is a registered event consumer.
type Subscription struct {
	id     uint64
	ch     chan message.Event
	filter func(message.EventType) bool
	hub    *Hub
}

// Events delivers published events. It is closed by Close.
func (s *Subscription) Events() <-chan message.Event { return s.ch }

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() { s.hub.unsubscribe(s) }

// Hub routes events to every subscription.
type Hub struct {
	seq atomic.Uint64

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	latest map[message.EventType]message.Event
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		latest: make(map[message.EventType]message.Event),
	}
}

// Subscribe registers a consumer with a buffer of size events. filter may be
// nil to receive everything. The latest history and storage events are
// delivered immediately.
func (h *Hub) Subscribe(size int, filter func(message.EventType) bool) *Subscription {
	if size <= 0 {
		size = 32
	}
	if filter == nil {
		filter = func(message.EventType) bool { return true }
	}

	h.mu.Lock()
	h.nextID++
	s := &Subscription{
		id:     h.nextID,
		ch:     make(chan message.Event, size),
		filter: filter,
		hub:    h,
	}
	h.subs[s.id] = s
	var replay []message.Event
	for _, ev := range h.latest {
		if filter(ev.Type) {
			replay = append(replay, ev)
		}
	}
	// Older sequence numbers first. The replay is sent before the lock is
	// released so a concurrent publish cannot overtake it.
	slices.SortFunc(replay, func(a, b message.Event) int { return cmp.Compare(a.Seq, b.Seq) })
	for _, ev := range replay {
		select {
		case s.ch <- ev:
		default:
		}
	}
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber registered", "subscriber", s.id, "total", total)
	return s
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[s.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.subs, s.id)
	total := len(h.subs)
	close(s.ch)
	h.mu.Unlock()

	slog.Debug("subscriber unregistered", "subscriber", s.id, "total", total)
}

// Publish marshals payload and delivers it to every interested subscriber.
func (h *Hub) Publish(typ message.EventType, payload any) {
	ev, err := message.NewEvent(typ, payload)
	if err != nil {
		slog.Error("dropping unencodable event", "type", typ, "err", err)
		return
	}
	h.PublishEvent(ev)
}

// PublishEvent delivers a prepared event.
func (h *Hub) PublishEvent(ev message.Event) {
	h.mu.Lock()
	ev.Seq = h.seq.Add(1)
	if sticky[ev.Type] {
		h.latest[ev.Type] = ev
	}
	// Sends happen under the lock so unsubscribe cannot close a channel
	// mid-send; they never block.
	for _, s := range h.subs {
		if !s.filter(ev.Type) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			slog.Warn("subscriber too slow, dropping event", "subscriber", s.id, "type", ev.Type)
		}
	}
	h.mu.Unlock()

	LogEvent(ev)
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
