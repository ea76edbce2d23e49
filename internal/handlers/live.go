package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"msitushield/internal/events"
)

// LiveFeed pushes lifecycle events to connected dashboard clients over
// WebSocket, so the alert list updates without polling.
type LiveFeed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

type liveClient struct {
	conn *websocket.Conn
	send chan events.Event
}

// NewLiveFeed creates the feed and subscribes it to the event bus.
func NewLiveFeed(bus *events.Bus) *LiveFeed {
	f := &LiveFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*liveClient]struct{}),
	}

	bus.Subscribe(f.broadcast)
	return f
}

// broadcast fans an event out to every connected client. A slow client's
// queue overflowing drops the event for that client only.
func (f *LiveFeed) broadcast(e events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for c := range f.clients {
		select {
		case c.send <- e:
		default:
			log.Printf("[WS] Client queue full, dropping %s event", e.Type)
		}
	}
}

// HandleConnection handles GET /api/alerts/live, upgrading to WebSocket.
func (f *LiveFeed) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &liveClient{
		conn: conn,
		send: make(chan events.Event, 32),
	}

	f.mu.Lock()
	f.clients[client] = struct{}{}
	count := len(f.clients)
	f.mu.Unlock()

	log.Printf("[WS] Dashboard client connected (%d active)", count)

	go f.writeLoop(client)
	f.readLoop(client)

	f.mu.Lock()
	delete(f.clients, client)
	f.mu.Unlock()
	close(client.send)

	log.Printf("[WS] Dashboard client disconnected")
}

// readLoop discards inbound messages; the feed is one-way. It exists to
// notice the peer closing and to keep the pong handler running.
func (f *LiveFeed) readLoop(c *liveClient) {
	defer c.conn.Close()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error: %v", err)
			}
			return
		}
	}
}

// writeLoop sends queued events and periodic pings until the client goes away.
func (f *LiveFeed) writeLoop(c *liveClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(e); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(
				websocket.PingMessage, nil,
				time.Now().Add(10*time.Second),
			); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// ActiveClients returns the number of connected dashboard clients.
func (f *LiveFeed) ActiveClients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
