package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket subscriber to a conversation's live updates.
type Client struct {
	UserID         string
	ConversationID string
	Send           chan []byte
	Conn           *websocket.Conn
}

// Hub fans live conversation updates out to connected clients, keyed by
// conversation id.
type Hub struct {
	Clients    map[string]map[*Client]bool // conversationID -> clients
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan BroadcastMessage
	mu         sync.RWMutex
}

type BroadcastMessage struct {
	ConversationID string
	Data           []byte
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan BroadcastMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Clients[client.ConversationID] == nil {
				h.Clients[client.ConversationID] = make(map[*Client]bool)
			}
			h.Clients[client.ConversationID][client] = true
			h.mu.Unlock()
		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.Clients[client.ConversationID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		case msg := <-h.Broadcast:
			h.mu.RLock()
			for client := range h.Clients[msg.ConversationID] {
				select {
				case client.Send <- msg.Data:
				default:
					close(client.Send)
					delete(h.Clients[msg.ConversationID], client)
				}
			}
			h.mu.RUnlock()
		}
	}
}
