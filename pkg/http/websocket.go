package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"callinsight/pkg/analysis"
)

// RecordMessage is the payload pushed to WebSocket subscribers for every
// structured conversation record.
type RecordMessage struct {
	CallUUID  string                      `json:"call_uuid"`
	Record    analysis.ConversationRecord `json:"record"`
	Timestamp time.Time                   `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	hub      *RecordHub
	conn     *websocket.Conn
	send     chan []byte
	logger   *logrus.Logger
	callUUID string // If client subscribes to a specific call
}

// RecordHub manages WebSocket clients and broadcasts conversation records
type RecordHub struct {
	logger          *logrus.Logger
	clients         map[*Client]bool
	callSubscribers map[string]map[*Client]bool
	broadcast       chan *RecordMessage
	register        chan *Client
	unregister      chan *Client
	mutex           sync.RWMutex
}

// WebSocketUpgrader configures the WebSocket connection
var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all connections
		return true
	},
}

// NewRecordHub creates a new record hub
func NewRecordHub(logger *logrus.Logger) *RecordHub {
	return &RecordHub{
		logger:          logger,
		clients:         make(map[*Client]bool),
		callSubscribers: make(map[string]map[*Client]bool),
		broadcast:       make(chan *RecordMessage),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
	}
}

// Run starts the record hub
func (h *RecordHub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket record hub")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Shutting down WebSocket record hub")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true

			if client.callUUID != "" {
				if _, exists := h.callSubscribers[client.callUUID]; !exists {
					h.callSubscribers[client.callUUID] = make(map[*Client]bool)
				}
				h.callSubscribers[client.callUUID][client] = true
				h.logger.WithFields(logrus.Fields{
					"call_uuid": client.callUUID,
				}).Info("Client subscribed to specific call")
			}

			h.mutex.Unlock()
			h.logger.Info("Client connected to WebSocket")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				if client.callUUID != "" {
					if subscribers, exists := h.callSubscribers[client.callUUID]; exists {
						delete(subscribers, client)
						if len(subscribers) == 0 {
							delete(h.callSubscribers, client.callUUID)
						}
					}
				}

				h.logger.Info("Client disconnected from WebSocket")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal record message")
				continue
			}

			h.mutex.Lock()

			// Send to subscribers of this specific call
			if subscribers, exists := h.callSubscribers[message.CallUUID]; exists && len(subscribers) > 0 {
				for client := range subscribers {
					select {
					case client.send <- data:
					default:
						close(client.send)
						delete(h.clients, client)
						delete(subscribers, client)
					}
				}
			}

			// Also broadcast to clients that want all records
			for client := range h.clients {
				if client.callUUID != "" {
					continue
				}

				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}

			h.mutex.Unlock()
		}
	}
}

// OnRecord implements pipeline.RecordListener, fanning each structured
// record out to connected clients.
func (h *RecordHub) OnRecord(callUUID string, record analysis.ConversationRecord) {
	h.broadcast <- &RecordMessage{
		CallUUID:  callUUID,
		Record:    record,
		Timestamp: time.Now().UTC(),
	}
}

// ServeWs handles WebSocket requests from clients
func (h *RecordHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}

	// Optional per-call subscription via query parameter
	callUUID := r.URL.Query().Get("call_uuid")

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		logger:   h.logger,
		callUUID: callUUID,
	}

	client.hub.register <- client

	go client.writePump()
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(60 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
