package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/pinpaste/internal/message"
)

func drain(s *Subscription) []message.Event {
	var out []message.Event
	for {
		select {
		case ev := <-s.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishFanOut(t *testing.T) {
	h := New()
	a := h.Subscribe(4, nil)
	b := h.Subscribe(4, nil)
	defer a.Close()
	defer b.Close()

	h.Publish(message.EventStorageWarning, "image already exists")

	for _, s := range []*Subscription{a, b} {
		evs := drain(s)
		require.Len(t, evs, 1)
		var msg string
		require.NoError(t, evs[0].Decode(&msg))
		assert.Equal(t, "image already exists", msg)
	}
}

func TestFilter(t *testing.T) {
	h := New()
	s := h.Subscribe(4, func(typ message.EventType) bool { return typ == message.EventWindow })
	defer s.Close()

	h.Publish(message.EventStorageWarning, "x")
	h.Publish(message.EventWindow, message.WindowCommand{Window: "main-1", Op: message.OpShow})

	evs := drain(s)
	require.Len(t, evs, 1)
	assert.Equal(t, message.EventWindow, evs[0].Type)
}

func TestStickyReplay(t *testing.T) {
	h := New()
	h.Publish(message.EventHistoryUpdated, []message.Record{{ID: "a"}})
	h.Publish(message.EventStorageInfo, message.StorageInfo{TotalCount: 1})
	h.Publish(message.EventStorageWarning, "not replayed")
	h.Publish(message.EventStorageInfo, message.StorageInfo{TotalCount: 2})

	s := h.Subscribe(4, nil)
	defer s.Close()

	evs := drain(s)
	require.Len(t, evs, 2)
	assert.Equal(t, message.EventHistoryUpdated, evs[0].Type)
	assert.Equal(t, message.EventStorageInfo, evs[1].Type)
	var info message.StorageInfo
	require.NoError(t, evs[1].Decode(&info))
	assert.Equal(t, 2, info.TotalCount)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	h := New()
	s := h.Subscribe(1, nil)
	defer s.Close()

	for i := 0; i < 10; i++ {
		h.Publish(message.EventSaveSuccess, "file.png")
	}
	assert.Len(t, drain(s), 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := New()
	s := h.Subscribe(1, nil)
	assert.Equal(t, 1, h.Subscribers())
	s.Close()
	s.Close()
	assert.Equal(t, 0, h.Subscribers())

	_, open := <-s.Events()
	assert.False(t, open)
	h.Publish(message.EventSaveSuccess, "after close")
}

func TestSequenceIncreases(t *testing.T) {
	h := New()
	s := h.Subscribe(4, nil)
	defer s.Close()
	h.Publish(message.EventSaveSuccess, "a")
	h.Publish(message.EventSaveSuccess, "b")
	evs := drain(s)
	require.Len(t, evs, 2)
	assert.Less(t, evs[0].Seq, evs[1].Seq)
}

func TestReplayNeverOvertakesConcurrentPublish(t *testing.T) {
	const publishes = 200
	h := New()
	h.Publish(message.EventHistoryUpdated, []message.Record{{ID: "seed"}})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < publishes; i++ {
			h.Publish(message.EventHistoryUpdated, []message.Record{{ID: "x"}})
		}
	}()

	subs := make([]*Subscription, 0, 50)
	for i := 0; i < 50; i++ {
		subs = append(subs, h.Subscribe(publishes+4, nil))
	}
	wg.Wait()

	for i, s := range subs {
		evs := drain(s)
		require.NotEmpty(t, evs, "subscriber %d", i)
		for j := 1; j < len(evs); j++ {
			assert.Less(t, evs[j-1].Seq, evs[j].Seq, "subscriber %d event %d", i, j)
		}
		s.Close()
	}
}
