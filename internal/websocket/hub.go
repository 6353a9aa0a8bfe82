package websocket

import (
	"encoding/json"
	"sync"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
)

// Client is one WebSocket session. A customer can be connected from several
// devices at once; each session is its own Client.
type Client struct {
	Hub     *Hub
	Conn    *Conn
	UserID  uint
	IsAdmin bool
	Send    chan []byte
}

// Hub routes chat messages between customers and back-office staff. Every
// conversation is a single thread per customer: a message for customer N is
// delivered to N's sessions and to every connected admin.
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *model.ChatMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *model.ChatMessage, 1024),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":  client.UserID,
				"is_admin": client.IsAdmin,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clientList, ok := h.clients[client.UserID]; ok {
				newList := make([]*Client, 0, len(clientList))
				for _, c := range clientList {
					if c != client {
						newList = append(newList, c)
					}
				}
				if len(newList) == 0 {
					delete(h.clients, client.UserID)
				} else {
					h.clients[client.UserID] = newList
				}
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id": client.UserID,
			})

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message *model.ChatMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal chat message", err, nil)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, clientList := range h.clients {
		for _, client := range clientList {
			// The thread owner and every admin see the message. The author's
			// other sessions get it too, so devices stay in sync.
			if userID != message.CustomerID && !client.IsAdmin {
				continue
			}
			select {
			case client.Send <- data:
			default:
				go h.Unregister(client)
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": userID,
				})
			}
		}
	}
}

// BroadcastMessage queues a stored chat message for delivery. A full queue
// drops the realtime push, the message itself is already persisted.
func (h *Hub) BroadcastMessage(message *model.ChatMessage) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"customer_id": message.CustomerID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
