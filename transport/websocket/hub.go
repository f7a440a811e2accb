package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/micromouse/mouse/engine"
)

const (
	// queued updates waiting for the Run loop
	publishQueue = 64
	// frames buffered per viewer before it counts as slow
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is what viewers receive
type Message struct {
	SessionID string           `json:"session_id"`
	RunState  *engine.RunState `json:"run_state,omitempty"`
	Event     string           `json:"event,omitempty"`
	Data      interface{}      `json:"data,omitempty"`
}

type viewerCount struct {
	sessionID string
	reply     chan int
}

// Hub fans run updates out to the viewers of each session. Only the Run
// goroutine touches viewers.
type Hub struct {
	viewers map[string]mapset.Set[*Client]

	outbox chan *Message
	joins  chan *Client
	leaves chan *Client
	counts chan viewerCount
	done   chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		viewers: map[string]mapset.Set[*Client]{},
		outbox:  make(chan *Message, publishQueue),
		joins:   make(chan *Client),
		leaves:  make(chan *Client),
		counts:  make(chan viewerCount),
		done:    make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then disconnects every viewer
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.joins:
			h.join(c)
		case c := <-h.leaves:
			h.leave(c)
		case m := <-h.outbox:
			h.deliver(m)
		case q := <-h.counts:
			q.reply <- h.count(q.sessionID)
		case <-ctx.Done():
			for _, set := range h.viewers {
				set.Each(func(c *Client) { close(c.send) })
			}
			h.viewers = map[string]mapset.Set[*Client]{}
			return
		}
	}
}

// ServeWS upgrades the request and attaches the viewer to sessionID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := newClient(h, conn, sessionID)
	select {
	case h.joins <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writeLoop()
	go c.readLoop()
}

// BroadcastToSession sends the latest run state to every viewer of a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.RunState) {
	h.publish(&Message{SessionID: sessionID, RunState: state, Event: "state_update"})
}

// BroadcastEvent sends a named event with an arbitrary payload
func (h *Hub) BroadcastEvent(sessionID, event string, data interface{}) {
	h.publish(&Message{SessionID: sessionID, Event: event, Data: data})
}

// publish never blocks the caller; a full queue drops the update
func (h *Hub) publish(m *Message) {
	select {
	case h.outbox <- m:
	default:
		log.Printf("Warning: websocket queue full, dropping %s for session %s", m.Event, m.SessionID)
	}
}

// ClientCount reports how many viewers a session has
func (h *Hub) ClientCount(sessionID string) int {
	q := viewerCount{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.counts <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) count(sessionID string) int {
	set, ok := h.viewers[sessionID]
	if !ok {
		return 0
	}
	return set.Size()
}

func (h *Hub) join(c *Client) {
	set, ok := h.viewers[c.sessionID]
	if !ok {
		set = mapset.New[*Client]()
		h.viewers[c.sessionID] = set
	}
	set.Put(c)
	log.Printf("[WS] viewer joined session=%s viewers=%d", c.sessionID, set.Size())
}

// leave is a no-op for viewers that already left
func (h *Hub) leave(c *Client) {
	set, ok := h.viewers[c.sessionID]
	if !ok || !set.Has(c) {
		return
	}
	set.Remove(c)
	close(c.send)
	if set.Size() == 0 {
		delete(h.viewers, c.sessionID)
	}
	log.Printf("[WS] viewer left session=%s viewers=%d", c.sessionID, set.Size())
}

func (h *Hub) deliver(m *Message) {
	set, ok := h.viewers[m.SessionID]
	if !ok {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("Failed to marshal WebSocket message: %v", err)
		return
	}

	var slow []*Client
	set.Each(func(c *Client) {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	})
	for _, c := range slow {
		h.leave(c)
	}
}
