package realtime

import (
	"encoding/json"
	"sync"

	"github.com/dom/wedding-planner/internal/platform/logger"
)

// Hub tracks open sockets per user and delivers events addressed to them.
type Hub struct {
	clients    map[uint64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan Event
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	stopped    bool
	log        *logger.Logger
	mu         sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan Event, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log.With("component", "realtime.Hub"),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[uint64]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				set, ok := h.clients[client.userID]
				if !ok {
					set = make(map[*Client]bool)
					h.clients[client.userID] = set
				}
				set[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.userID]; ok && set[client] {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.userID)
				}
				client.Close()
			}
			h.mu.Unlock()

		case ev := <-h.deliver:
			h.dispatch(ev)
		}
	}
}

func (h *Hub) dispatch(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal event", "event_id", ev.ID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[ev.UserID] {
		if !client.trySend(data) {
			h.log.Warn("dropping event for slow client", "user_id", ev.UserID, "type", ev.Type)
		}
	}
}

// Stop shuts the hub down and closes every client. It blocks until Run exits.
// Safe to call more than once and from several goroutines.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Deliver queues an event for the sockets of ev.UserID. Events for users with
// no open socket are dropped.
func (h *Hub) Deliver(ev Event) {
	select {
	case h.deliver <- ev:
	case <-h.done:
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many sockets are open for a user.
func (h *Hub) ClientCount(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
