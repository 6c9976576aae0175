package report

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atmx/sales-engine/internal/metrics"
)

// EventReportGenerated is the only event type the feed publishes today.
const EventReportGenerated = "report_generated"

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
	maxInboundBytes  = 512
)

// ReportEvent is the JSON notification pushed to WebSocket subscribers.
type ReportEvent struct {
	Type        string `json:"type"`
	ReportID    string `json:"report_id"`
	SellerCount int    `json:"seller_count"`
	TopSellerID string `json:"top_seller_id,omitempty"`
}

// Feed fans report events out to WebSocket subscribers. Publishing never
// waits on a peer: a subscriber whose buffer is full is disconnected.
type Feed struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	send chan []byte
}

// NewFeed returns an open feed with no subscribers.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Subscribers returns the number of connected peers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Publish queues ev for every subscriber.
func (f *Feed) Publish(ev ReportEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("ws event encode failed", "type", ev.Type, "err", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.send <- data:
		default:
			f.dropLocked(sub)
			slog.Warn("ws subscriber dropped", "reason", "buffer full")
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for sub := range f.subs {
		f.dropLocked(sub)
	}
}

func (f *Feed) subscribe() (*subscriber, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	sub := &subscriber{send: make(chan []byte, subscriberBuffer)}
	f.subs[sub] = struct{}{}
	metrics.WebSocketClients.Set(float64(len(f.subs)))
	return sub, true
}

func (f *Feed) unsubscribe(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked(sub)
}

// dropLocked closes sub.send exactly once. Caller holds f.mu.
func (f *Feed) dropLocked(sub *subscriber) {
	if _, ok := f.subs[sub]; !ok {
		return
	}
	delete(f.subs, sub)
	close(sub.send)
	metrics.WebSocketClients.Set(float64(len(f.subs)))
}

// ServeWS upgrades GET /api/v1/ws and streams events to the peer until it
// disconnects or the feed closes.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	sub, ok := f.subscribe()
	if !ok {
		goingAway(conn)
		return
	}
	defer f.unsubscribe(sub)
	slog.Info("ws subscriber connected", "remote", r.RemoteAddr)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		drain(conn)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case msg, open := <-sub.send:
			if !open {
				goingAway(conn)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

// drain reads and discards inbound frames so pongs and close frames are
// handled. It returns once the peer is gone or stops answering pings.
func drain(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func goingAway(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
