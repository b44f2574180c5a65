package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EventType for session feed messages
type EventType string

const (
	EventSessionOpened EventType = "session.opened"
	EventSessionClosed EventType = "session.closed"
)

// Event is one session feed message
type Event struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session"`
}

// Hub fans session lifecycle events out to connected staff dashboards.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan *Event

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan *Event
}

// NewHub creates a session event hub
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Event, 64),
		clients:    make(map[*client]struct{}),
	}
}

// Run processes hub events; call in a goroutine at startup.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			log.Debug().Int("clients", h.clientCount()).Msg("session feed client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			log.Debug().Int("clients", h.clientCount()).Msg("session feed client disconnected")

		case event := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Slow consumer; drop the event rather than block the hub.
					log.Warn().Str("event", string(event.Type)).Msg("session feed event dropped")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastSession queues an event for all connected dashboards.
func (h *Hub) BroadcastSession(event EventType, s *Session) {
	select {
	case h.broadcast <- &Event{Type: event, Session: s}:
	default:
		log.Warn().Str("event", string(event)).Msg("session feed broadcast queue full")
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

// serve pumps hub events to a single websocket connection.
func (h *Hub) serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan *Event, 16)}
	h.register <- c

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			conn.Close()
		}()
		for {
			select {
			case event, ok := <-c.send:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: the feed is one-way, but reads detect disconnects.
	go func() {
		defer func() {
			h.unregister <- c
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
