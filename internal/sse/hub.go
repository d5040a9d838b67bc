package sse

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/user/alsamixer-volume/internal/logging"
)

// Hub fans events out to the connected clients. It numbers events that
// carry no ID and remembers the latest event of every type, so a client
// that connects later first receives the current state.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	stop       chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	clients map[*Client]struct{}
	latest  map[string]Event
	order   []string // event types in first-seen order
	seq     uint64
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event),
		stop:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		latest:     make(map[string]Event),
	}
}

// Register adds a client. After Stop the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
		client.Close()
	}
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// Broadcast sends event to every client. It returns without sending once
// the hub is stopped.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	case <-h.stop:
	}
}

// Run serves Register, Unregister and Broadcast until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.publish(event)
		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	for _, typ := range h.order {
		event := h.latest[typ]
		if id, err := strconv.ParseUint(event.ID, 10, 64); err == nil && id <= client.lastID {
			continue
		}
		if err := client.WriteEvent(event); err != nil {
			break
		}
	}
	logging.Debugf("SSE client registered, total clients: %d", len(h.clients))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
	logging.Debugf("SSE client unregistered, total clients: %d", len(h.clients))
}

func (h *Hub) publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if event.ID == "" {
		h.seq++
		event.ID = strconv.FormatUint(h.seq, 10)
	}
	if event.Type != "" {
		if _, seen := h.latest[event.Type]; !seen {
			h.order = append(h.order, event.Type)
		}
		h.latest[event.Type] = event
	}

	logging.Tracef("SSE broadcasting to %d clients: type=%s", len(h.clients), event.Type)
	for client := range h.clients {
		if err := client.WriteEvent(event); err != nil {
			logging.Debugf("dropping SSE client: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Stop signals the hub to stop running. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP streams events to the requester. A Last-Event-ID header skips
// replayed events the client has already seen.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Expected GET method", http.StatusMethodNotAllowed)
		return
	}

	accept := r.Header.Get("Accept")
	if accept != "" && !strings.Contains(accept, "text/event-stream") && !strings.Contains(accept, "*/*") {
		http.Error(w, "Expected Accept: text/event-stream", http.StatusBadRequest)
		return
	}

	client := NewClient(w, r.Context())
	if last := r.Header.Get("Last-Event-ID"); last != "" {
		if id, err := strconv.ParseUint(last, 10, 64); err == nil {
			client.lastID = id
		}
	}
	h.Register(client)
	defer h.Unregister(client)

	client.Run()
}
