package realtime

import (
	"context"
	"sync"
	"time"

	"contesthub/metrics"
	"contesthub/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventParticipants EventType = "participants"
	EventStatus       EventType = "status"
	EventWinner       EventType = "winner"
)

// ContestEvent is pushed to every client watching the contest
type ContestEvent struct {
	ContestID    string         `json:"contestId"`
	Type         EventType      `json:"type"`
	Participants int            `json:"participants,omitempty"`
	Status       string         `json:"status,omitempty"`
	Winner       *models.Winner `json:"winner,omitempty"`
	At           time.Time      `json:"at"`
}

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// client owns one websocket; only its writer goroutine touches the connection for writes
type client struct {
	conn *websocket.Conn
	send chan ContestEvent
}

// Hub fans contest events out to websocket clients grouped by contest id
type Hub struct {
	mu        sync.Mutex
	clients   map[string]map[*websocket.Conn]*client
	broadcast chan ContestEvent
	log       logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:   make(map[string]map[*websocket.Conn]*client),
		broadcast: make(chan ContestEvent, 256),
		log:       log,
	}
}

// Register adds a websocket client to a contest and starts its writer
func (h *Hub) Register(contestID string, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan ContestEvent, sendBuffer)}
	h.mu.Lock()
	if h.clients[contestID] == nil {
		h.clients[contestID] = make(map[*websocket.Conn]*client)
	}
	h.clients[contestID][conn] = c
	h.mu.Unlock()
	metrics.RealtimeClients.Inc()

	go h.writePump(contestID, c)
}

// Unregister removes a websocket client from a contest
func (h *Hub) Unregister(contestID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(contestID, conn)
}

func (h *Hub) removeLocked(contestID string, conn *websocket.Conn) {
	clients, exists := h.clients[contestID]
	if !exists {
		return
	}
	if c, ok := clients[conn]; ok {
		close(c.send)
		delete(clients, conn)
		metrics.RealtimeClients.Dec()
	}
	if len(clients) == 0 {
		delete(h.clients, contestID)
	}
}

// Subscribers returns how many clients watch a contest
func (h *Hub) Subscribers(contestID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[contestID])
}

// Publish queues an event without blocking the caller; events are dropped when the queue is full
func (h *Hub) Publish(evt ContestEvent) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- evt:
	default:
		h.log.WithField("contest_id", evt.ContestID).Warn("realtime queue full, dropping event")
	}
}

// Run delivers queued events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt := <-h.broadcast:
			h.deliver(evt)
		}
	}
}

// deliver hands the event to each subscriber's queue; a client whose queue is full is dropped
func (h *Hub) deliver(evt ContestEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, c := range h.clients[evt.ContestID] {
		select {
		case c.send <- evt:
		default:
			h.log.WithField("contest_id", evt.ContestID).Warn("websocket client too slow, disconnecting")
			h.removeLocked(evt.ContestID, conn)
			conn.Close()
		}
	}
}

func (h *Hub) writePump(contestID string, c *client) {
	for evt := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(evt); err != nil {
			h.log.WithError(err).WithField("contest_id", contestID).Debug("websocket write failed")
			c.conn.Close()
			h.Unregister(contestID, c.conn)
			return
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for conn, c := range clients {
			close(c.send)
			conn.Close()
			metrics.RealtimeClients.Dec()
		}
		delete(h.clients, id)
	}
}
