package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countContaining(msgs []string, sub string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	require.Equal(t, 0, b.ClientCount())

	ch := b.Subscribe()
	require.Equal(t, 1, b.ClientCount())

	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount(), "expected 0 clients after unsub")
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeCatalogUpdated, Data: CatalogData{Locale: "en", Revision: "1-2"}})

	select {
	case msg := <-ch:
		s := string(msg)
		assert.Contains(t, s, "event: catalog.updated")
		assert.Contains(t, s, `"locale":"en"`)
		assert.Contains(t, s, `"revision":"1-2"`)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishCatalogEvent_ThrottlesAndCoalesces(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First update goes out immediately; the next two fall inside the window.
	b.PublishCatalogEvent("updated", "en", "r1")
	b.PublishCatalogEvent("updated", "en", "r2")
	b.PublishCatalogEvent("updated", "en", "r3")
	// Other locales have their own window.
	b.PublishCatalogEvent("updated", "zh", "z1")

	time.Sleep(50 * time.Millisecond)
	early := drain(ch)
	require.Equal(t, 2, countContaining(early, "catalog.updated"), "immediate updates: %q", early)

	time.Sleep(400 * time.Millisecond)
	late := drain(ch)
	require.Len(t, late, 1, "deferred updates: %q", late)
	assert.Contains(t, late[0], `"revision":"r3"`, "deferred update should carry latest revision")
}

func TestPublishCatalogEvent_UnavailableNotThrottled(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCatalogEvent("updated", "en", "r1")
	b.PublishCatalogEvent("unavailable", "en", "")
	b.PublishCatalogEvent("unavailable", "en", "")
	b.PublishCatalogEvent("bogus", "en", "")

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	assert.Equal(t, 2, countContaining(msgs, "catalog.unavailable"))
	assert.Len(t, msgs, 3, "events: %q", msgs)
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, b.ClientCount(), "expected 1 client from handler")

	b.PublishCatalogEvent("updated", "en", "r9")
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: catalog.updated")

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, b.ClientCount(), "client not cleaned up after disconnect")
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	require.Equal(t, 1, b.ClientCount())

	b.Close()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected subscriber channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	assert.Equal(t, 0, b.ClientCount(), "expected 0 clients after close")

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeCatalogUpdated})
	b.PublishCatalogEvent("updated", "en", "r1")
}
