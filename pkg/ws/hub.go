// Package ws implements the room-based WebSocket hub used by chat. The hub
// owns all room membership state; domain code talks to it through Join,
// Leave and Broadcast.
package ws

import (
	"context"
	"sync"

	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/metrics"
)

// Hub routes messages between rooms and connected clients.
type Hub struct {
	logg *logger.Logger

	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage

	done chan struct{}
}

type roomMessage struct {
	room    string
	payload []byte
	exclude *Client
}

// NewHub constructs an idle hub. Run must be called before clients attach.
func NewHub(logg *logger.Logger) *Hub {
	return &Hub{
		logg:       logg,
		rooms:      make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled. All connected clients are
// closed on shutdown.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Join adds the client to a named room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

// Leave removes the client from a named room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, room)
}

// Broadcast queues payload for every client in the room. The exclude client,
// when non-nil, is skipped so senders do not echo to themselves.
func (h *Hub) Broadcast(room string, payload []byte, exclude *Client) {
	select {
	case h.broadcast <- roomMessage{room: room, payload: payload, exclude: exclude}:
	case <-h.done:
	}
}

// RoomSize reports the current number of clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.SetWSConnections(total)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.closeSend()
	metrics.SetWSConnections(total)
}

func (h *Hub) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) deliver(msg roomMessage) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[msg.room]))
	for client := range h.rooms[msg.room] {
		if client == msg.exclude {
			continue
		}
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		if !client.trySend(msg.payload) {
			// The send queue is full: the reader has stalled, so the
			// connection is dropped rather than blocking the hub.
			metrics.IncWSSlowClientDrops()
			h.removeClient(client)
			client.conn.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
		client.conn.Close()
	}
	metrics.SetWSConnections(0)
}
