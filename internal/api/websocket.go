package api

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// WebSocket event names
const (
	EventScan          = "scan"
	EventOrder         = "order"
	EventDeviceAdded   = "device_added"
	EventDeviceRemoved = "device_removed"
	EventJobCompleted  = "job_completed"
	EventJobFailed     = "job_failed"
	EventCommand       = "command"
	EventResponse      = "response"
	EventError         = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsRequest is a message sent by a client
type wsRequest struct {
	Event   string `json:"event"`
	Command string `json:"command"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// Hub tracks connected clients and fans events out to them
type Hub struct {
	clients map[*WSClient]bool
	mu      sync.RWMutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*WSClient]bool)}
}

func (h *Hub) add(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *WSClient) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client. Clients with a full send
// buffer miss the event.
func (h *Hub) Broadcast(event string, data any) {
	message := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			logger.Warn("websocket client buffer full, event dropped", zap.String("event", event))
		}
	}

	logger.Debug("websocket broadcast", zap.String("event", event), zap.Int("clients", len(h.clients)))
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.hub.add(client)

	logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	go client.readPump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		logger.Info("websocket client disconnected")
	}()

	for {
		var msg wsRequest
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *wsRequest) {
	switch msg.Event {
	case EventCommand:
		c.reply(EventResponse, c.server.executor.Execute(msg.Command))
	default:
		c.reply(EventError, map[string]any{"error": "unknown event: " + msg.Event})
	}
}

// reply queues a message for this client only
func (c *WSClient) reply(event string, data any) {
	c.server.hub.mu.RLock()
	defer c.server.hub.mu.RUnlock()

	if !c.server.hub.clients[c] {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}
