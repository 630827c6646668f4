// Package sse implements a Server-Sent Events broker for catalog change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Catalog event types.
const (
	TypeCatalogUpdated     = "catalog.updated"
	TypeCatalogUnavailable = "catalog.unavailable"
)

const keepAliveInterval = 30 * time.Second

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// CatalogData is the payload of catalog events.
type CatalogData struct {
	Locale   string `json:"locale"`
	Revision string `json:"revision,omitempty"`
}

type catalogEventReq struct {
	kind     string
	locale   string
	revision string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, per-locale throttle timestamps and deferred updates). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	updateMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	catalogCh     chan catalogEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits at most one catalog.updated event per
// locale every updateThrottle. Updates arriving inside the window are
// coalesced and the latest revision is sent when the window ends.
func NewBroker(updateThrottle time.Duration) *Broker {
	if updateThrottle <= 0 {
		updateThrottle = 2 * time.Second
	}

	b := &Broker{
		updateMin:     updateThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		catalogCh:     make(chan catalogEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastUpdate := make(map[string]time.Time)
	deferred := make(map[string]string) // locale -> latest revision held back by the throttle
	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	var flushAt time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	sendUpdate := func(locale, revision string, now time.Time) {
		lastUpdate[locale] = now
		broadcast(Event{Type: TypeCatalogUpdated, Data: CatalogData{Locale: locale, Revision: revision}})
	}

	scheduleFlush := func(d time.Duration) {
		at := time.Now().Add(d)
		if !flushAt.IsZero() && flushAt.Before(at) {
			return
		}
		flushAt = at
		if flushTimer == nil {
			flushTimer = time.NewTimer(d)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(d)
		}
	}

	for {
		select {
		case <-b.stopCh:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.catalogCh:
			now := time.Now()
			switch req.kind {
			case "updated":
				if wait := b.updateMin - now.Sub(lastUpdate[req.locale]); wait > 0 {
					deferred[req.locale] = req.revision
					scheduleFlush(wait)
					continue
				}
				delete(deferred, req.locale)
				sendUpdate(req.locale, req.revision, now)
			case "unavailable":
				delete(deferred, req.locale)
				broadcast(Event{Type: TypeCatalogUnavailable, Data: CatalogData{Locale: req.locale}})
			}

		case <-flushCh:
			flushAt = time.Time{}
			now := time.Now()
			var next time.Duration
			for locale, rev := range deferred {
				if wait := b.updateMin - now.Sub(lastUpdate[locale]); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(deferred, locale)
				sendUpdate(locale, rev, now)
			}
			if next > 0 {
				scheduleFlush(next)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishCatalogEvent broadcasts a catalog change. kind is "updated" or
// "unavailable"; other kinds are ignored. Its signature matches
// catalogcache.EventCallback.
func (b *Broker) PublishCatalogEvent(kind, locale, revision string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogCh <- catalogEventReq{kind: kind, locale: locale, revision: revision}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
